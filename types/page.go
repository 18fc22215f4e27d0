/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// DefaultPageSize is used when a PageRequest has no positive page size.
const DefaultPageSize = 25

// Filter is an equality predicate on one attribute.
type Filter struct {
	Field string
	Value interface{}
}

// Eq builds a Filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// Sort orders a listing by one attribute.
type Sort struct {
	Field     string
	Direction SortDirection
}

// OrderBy builds a Sort.
func OrderBy(field string, direction SortDirection) Sort {
	return Sort{Field: field, Direction: direction}
}

// PageRequest describes pagination, equality filters, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filters  []Filter
	sorts    []Sort
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilters() []Filter {
	return p.filters
}

func (p *PageRequest) GetSorts() []Sort {
	return p.sorts
}

// NewPageRequest constructs a PageRequest with filters and ordering.
func NewPageRequest(page int, pageSize int, filters []Filter, sorts []Sort) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filters: filters, sorts: sorts}
}

// NewDefaultPageRequest constructs a PageRequest with no filters or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds one page of items along with pagination metadata.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	LastPage int  `json:"last_page"`
	Items    []*T `json:"items"`
}

// NewDefaultPagination constructs an empty page.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, LastPage: 1, Items: make([]*T, 0)}
}

// SetTotal records the total row count and derives LastPage.
func (p *Pagination[T]) SetTotal(total int) {
	p.Total = total
	p.LastPage = 1
	if total > 0 && p.PageSize > 0 {
		p.LastPage = (total + p.PageSize - 1) / p.PageSize
	}
}

// HasMorePages reports whether a page after this one exists.
func (p *Pagination[T]) HasMorePages() bool {
	return p.Page < p.LastPage
}
