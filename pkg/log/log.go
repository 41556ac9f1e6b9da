// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	pageIndent   = 4  // spaces to indent page entries
	pathWidth    = 50 // Base width for the export path
	statusWidth  = 10 // Width for status text
	summaryWidth = 10 // Width for summary labels
)

// 🎯 PageOperation represents one exported page for logging
type PageOperation struct {
	ID          string // Page id
	Title       string // Page title
	Path        string // Export path relative to the output root
	Status      string // Write status (new/modified/unchanged)
	Attachments int    // Number of attachments written
	IsIgnored   bool   // Whether the page matched a skip pattern
	Err         error  // Export failure, if any
}

// 📦 BatchOperation represents a batch of pages for logging
type BatchOperation struct {
	Title string // What is being exported
	Total int    // Number of pages left to export
	Root  string // Output root
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	batch   *BatchOperation
	pages   []PageOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// Console returns the writer console lines go to
func (l *Logger) Console() io.Writer {
	return l.console
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatPageOperation formats a page operation for display
func (l *Logger) formatPageOperation(op PageOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	status := op.Status
	switch {
	case op.Err != nil:
		symbol = '✗'
		symbolColor = color.FgRed
		status = "failed"
	case op.IsIgnored:
		symbol = '-'
		symbolColor = color.FgYellow
		status = "ignored"
	case op.Status == "new":
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.Status == "modified":
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	name := op.Path
	if name == "" {
		name = op.ID
	}

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", pageIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", pathWidth, name),
		fmt.Sprintf("%-*s", statusWidth, status))

	if op.Attachments > 0 {
		line += color.New(color.Faint).Sprintf(" +%d attachments", op.Attachments)
	}
	return line
}

// 📝 LogPageOperation logs an exported, ignored or failed page
func (l *Logger) LogPageOperation(ctx context.Context, op PageOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pages = append(l.pages, op)

	fmt.Fprintln(l.console, l.formatPageOperation(op))

	event := l.zlog.Info()
	if op.Err != nil {
		event = l.zlog.Error().Err(op.Err)
	}
	event.
		Str("page_id", op.ID).
		Str("title", op.Title).
		Str("path", op.Path).
		Str("status", op.Status).
		Bool("is_ignored", op.IsIgnored).
		Int("attachments", op.Attachments).
		Msg("page operation")
}

// 📝 StartBatch starts a new batch of pages
func (l *Logger) StartBatch(ctx context.Context, op BatchOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.batch = &op
	l.pages = nil

	fmt.Fprintf(l.console, "[exporting %s]\n",
		color.New(color.FgCyan).Sprint(op.Title))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprintf("%d pages", op.Total),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Root))

	l.zlog.Info().
		Str("batch", op.Title).
		Int("total", op.Total).
		Str("root", op.Root).
		Msg("starting batch")
}

// 📊 BatchCounts is the tally printed when a batch ends
type BatchCounts struct {
	Exported int
	Ignored  int
	Failed   int
	Resumed  int
}

// 📝 EndBatch prints the tally and ends the current batch
func (l *Logger) EndBatch(ctx context.Context, counts BatchCounts) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.batch == nil {
		return
	}

	rows := []struct {
		label string
		value int
		attr  color.Attribute
	}{
		{"exported", counts.Exported, color.FgGreen},
		{"ignored", counts.Ignored, color.FgYellow},
		{"failed", counts.Failed, color.FgRed},
		{"resumed", counts.Resumed, color.FgCyan},
	}
	for _, r := range rows {
		if r.value == 0 {
			continue
		}
		fmt.Fprintf(l.console, "%*s%s %d\n", pageIndent, "",
			color.New(r.attr).Sprintf("%-*s", summaryWidth, r.label), r.value)
	}

	l.zlog.Info().
		Str("batch", l.batch.Title).
		Int("pages", len(l.pages)).
		Int("exported", counts.Exported).
		Int("ignored", counts.Ignored).
		Int("failed", counts.Failed).
		Int("resumed", counts.Resumed).
		Msg("batch complete")

	l.batch = nil
	l.pages = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("confexport")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
