package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/search"
)

var errQuit = errors.New("quit")

// controller is the part of search.Controller the shell drives
type controller interface {
	ChangeSearchText(ctx context.Context, text string)
	ClearSearch(ctx context.Context)
	ChangePage(ctx context.Context, index int)
	ChangePageSize(ctx context.Context, size int)
	SetFilter(ctx context.Context, name search.FilterName, value string)
	ClearFilters(ctx context.Context)
	SetSort(ctx context.Context, field string)
	UpdateItemQuantity(id uuid.UUID, quantity int) bool
	InvalidateCorpus()
	DismissError()
}

// quantityUpdater writes a quantity change to the API
type quantityUpdater interface {
	UpdateItemQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.Item, error)
}

const helpText = `commands:
  search <text>             filter items by text (empty clears)
  clear                     clear the search
  page <n>                  go to page n (1-based)
  size <n>                  set and remember the page size
  filter <name> <value>     set location, category, label (IDs) or archived (true/false)
  unfilter [name]           remove one filter, or all of them
  sort <field>              sort by name, quantity, assetId, manufacturer, createdAt or
                            updatedAt; repeating the field flips the direction
  qty <item-id> <n>         update an item's quantity
  reload                    reload the full item snapshot
  show                      print the current view
  help                      print this help
  quit                      exit`

// shell maps command lines onto controller calls
type shell struct {
	ctrl    controller
	updater quantityUpdater
}

// exec runs one command line. show reports whether the view should be printed.
func (s *shell) exec(ctx context.Context, line string) (show bool, err error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "search", "s":
		s.ctrl.DismissError()
		s.ctrl.ChangeSearchText(ctx, rest)
	case "clear":
		s.ctrl.DismissError()
		s.ctrl.ClearSearch(ctx)
	case "page", "p":
		n, err := positiveArg(args, "page")
		if err != nil {
			return false, err
		}
		s.ctrl.ChangePage(ctx, n-1)
	case "size":
		n, err := positiveArg(args, "size")
		if err != nil {
			return false, err
		}
		s.ctrl.ChangePageSize(ctx, n)
	case "filter", "f":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: filter <name> <value>")
		}
		s.ctrl.SetFilter(ctx, search.FilterName(strings.ToLower(args[0])), args[1])
	case "unfilter":
		switch len(args) {
		case 0:
			s.ctrl.ClearFilters(ctx)
		case 1:
			s.ctrl.SetFilter(ctx, search.FilterName(strings.ToLower(args[0])), "")
		default:
			return false, fmt.Errorf("usage: unfilter [name]")
		}
	case "sort":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: sort <field>")
		}
		s.ctrl.SetSort(ctx, args[0])
	case "qty":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: qty <item-id> <n>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid item ID %q", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return false, fmt.Errorf("quantity must be a non-negative number")
		}
		item, err := s.updater.UpdateItemQuantity(ctx, id, n)
		if err != nil {
			return false, fmt.Errorf("failed to update quantity: %w", err)
		}
		s.ctrl.UpdateItemQuantity(item.ID, item.Quantity)
	case "reload":
		s.ctrl.InvalidateCorpus()
	case "show", "ls":
	case "help", "?":
		fmt.Println(helpText)
		return false, nil
	case "quit", "exit", "q":
		return false, errQuit
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return true, nil
}

func positiveArg(args []string, name string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <n>", name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive number", name)
	}
	return n, nil
}
