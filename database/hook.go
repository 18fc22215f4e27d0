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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// QueryLogEnv switches the pretty query log at runtime: "0" disables it,
// "1" logs failed queries only, "2" logs every query.
const QueryLogEnv = "REPOSIT_SQL_LOG"

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var (
	defaultOperationColor = color.New(color.FgRed)
	errorColor            = color.New(color.BgRed, color.FgWhite)
	tagColor              = color.New(color.FgCyan)
)

// QueryLogHook prints executed statements colored by operation.
type QueryLogHook struct {
	Verbose bool
	Writer  io.Writer
}

var _ bun.QueryHook = (*QueryLogHook)(nil)

// NewQueryLogHook returns a verbose hook writing to w, or stdout when w is nil.
func NewQueryLogHook(w io.Writer) *QueryLogHook {
	if w == nil {
		w = os.Stdout
	}
	return &QueryLogHook{Verbose: true, Writer: w}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	verbose := h.Verbose
	if env, ok := os.LookupEnv(QueryLogEnv); ok {
		if env == "" || env == "0" {
			return
		}
		verbose = env == "2"
	}
	if !verbose && (event.Err == nil || errors.Is(event.Err, sql.ErrNoRows)) {
		return
	}

	c, ok := operationColors[event.Operation()]
	if !ok {
		c = defaultOperationColor
	}
	line := fmt.Sprintf("%s %s %10s  %s",
		time.Now().Format("2006-01-02 15:04:05.000"),
		tagColor.Sprint("[BUN]"),
		time.Since(event.StartTime).Round(time.Microsecond),
		c.Sprint(event.Query),
	)
	if event.Err != nil {
		line += "\t" + errorColor.Sprintf(" %T: %v ", event.Err, event.Err)
	}
	_, _ = fmt.Fprintln(h.Writer, line)
}

type slowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	if d := time.Since(event.StartTime); d > h.threshold {
		h.logger.Warn("Database slow query detected",
			"duration", d,
			"slow_threshold", h.threshold,
			"query", event.Query,
		)
	}
}
