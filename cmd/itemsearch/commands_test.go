package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/search"
)

type fakeController struct {
	calls []string
}

func (f *fakeController) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeController) ChangeSearchText(_ context.Context, text string) { f.record("search %q", text) }
func (f *fakeController) ClearSearch(context.Context)                    { f.record("clear") }
func (f *fakeController) ChangePage(_ context.Context, index int)        { f.record("page %d", index) }
func (f *fakeController) ChangePageSize(_ context.Context, size int)     { f.record("size %d", size) }
func (f *fakeController) SetFilter(_ context.Context, name search.FilterName, value string) {
	f.record("filter %s=%q", name, value)
}
func (f *fakeController) ClearFilters(context.Context)           { f.record("unfilter") }
func (f *fakeController) SetSort(_ context.Context, field string) { f.record("sort %s", field) }
func (f *fakeController) UpdateItemQuantity(id uuid.UUID, quantity int) bool {
	f.record("qty %s %d", id, quantity)
	return true
}
func (f *fakeController) InvalidateCorpus() { f.record("reload") }
func (f *fakeController) DismissError()     {}

type fakeUpdater struct {
	err error
}

func (u fakeUpdater) UpdateItemQuantity(_ context.Context, id uuid.UUID, quantity int) (*domain.Item, error) {
	if u.err != nil {
		return nil, u.err
	}
	return &domain.Item{ID: id, Quantity: quantity}, nil
}

func TestShell_Exec(t *testing.T) {
	itemID := uuid.MustParse("7f2c3b1e-8d4a-4f6b-9c0e-1a2b3c4d5e6f")

	tests := []struct {
		name     string
		line     string
		updater  fakeUpdater
		want     []string
		wantShow bool
		errMsg   string
	}{
		{name: "search_keeps_spaces", line: "search  cordless drill ", want: []string{`search "cordless drill"`}, wantShow: true},
		{name: "empty_search", line: "search", want: []string{`search ""`}, wantShow: true},
		{name: "clear", line: "clear", want: []string{"clear"}, wantShow: true},
		{name: "page_is_one_based", line: "page 3", want: []string{"page 2"}, wantShow: true},
		{name: "page_zero", line: "page 0", errMsg: "page must be a positive number"},
		{name: "size", line: "size 25", want: []string{"size 25"}, wantShow: true},
		{name: "size_missing", line: "size", errMsg: "usage: size <n>"},
		{name: "filter", line: "filter Location abc", want: []string{`filter location="abc"`}, wantShow: true},
		{name: "filter_missing_value", line: "filter label", errMsg: "usage: filter"},
		{name: "unfilter_one", line: "unfilter label", want: []string{`filter label=""`}, wantShow: true},
		{name: "unfilter_all", line: "unfilter", want: []string{"unfilter"}, wantShow: true},
		{name: "sort", line: "sort quantity", want: []string{"sort quantity"}, wantShow: true},
		{
			name:     "qty",
			line:     "qty " + itemID.String() + " 4",
			want:     []string{fmt.Sprintf("qty %s 4", itemID)},
			wantShow: true,
		},
		{name: "qty_bad_id", line: "qty nope 4", errMsg: `invalid item ID "nope"`},
		{name: "qty_negative", line: "qty " + itemID.String() + " -1", errMsg: "non-negative"},
		{
			name:    "qty_api_error",
			line:    "qty " + itemID.String() + " 4",
			updater: fakeUpdater{err: errors.New("boom")},
			errMsg:  "failed to update quantity",
		},
		{name: "reload", line: "reload", want: []string{"reload"}, wantShow: true},
		{name: "show", line: "show", wantShow: true},
		{name: "blank", line: "   "},
		{name: "unknown", line: "frobnicate", errMsg: `unknown command "frobnicate"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			sh := &shell{ctrl: ctrl, updater: tt.updater}

			show, err := sh.exec(context.Background(), tt.line)

			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, ctrl.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantShow, show)
			assert.Equal(t, tt.want, ctrl.calls)
		})
	}
}

func TestShell_Quit(t *testing.T) {
	sh := &shell{ctrl: &fakeController{}}
	for _, line := range []string{"quit", "exit", "q"} {
		_, err := sh.exec(context.Background(), line)
		assert.ErrorIs(t, err, errQuit, line)
	}
}
