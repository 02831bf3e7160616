// Command itemsearch is a terminal client for browsing items through the
// search controller against a running API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ammerola/boxwise-be/internal/client"
	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/pkg/logger"
	"github.com/ammerola/boxwise-be/internal/search"
)

type args struct {
	URL         string        `arg:"--url,env:BOXWISE_API_URL" default:"http://localhost:8080" help:"API base URL"`
	Address     string        `arg:"--address" default:"/items" help:"starting address, filters may be given as query parameters"`
	Timeout     time.Duration `arg:"--timeout,env:SEARCH_REQUEST_TIMEOUT" default:"30s" help:"per request timeout"`
	Debounce    time.Duration `arg:"--debounce,env:SEARCH_DEBOUNCE" default:"800ms" help:"wait before falling back to server search"`
	CorpusLimit int           `arg:"--corpus-limit,env:SEARCH_CORPUS_LIMIT" default:"10000" help:"page size used to load the full item snapshot"`
	LogLevel    string        `arg:"--log-level" default:"warn" help:"log level (debug, info, warn, error)"`
}

func (args) Description() string {
	return "itemsearch browses the item collection. Type help at the prompt for commands."
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func main() {
	var a args
	arg.MustParse(&a)

	log := logger.NewLogger(&logger.LogConfig{
		Level:       a.LogLevel,
		Format:      "text",
		Output:      "stderr",
		ServiceName: "itemsearch",
	}).Logger

	address, err := search.NewMemoryAddressBar(a.Address)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(2)
	}

	api := client.NewItemsClient(client.Config{
		BaseURL: a.URL,
		Timeout: a.Timeout,
	}, log)

	ctrl := search.NewController(api, api, address, log,
		search.WithDebounce(a.Debounce),
		search.WithCorpusLimit(a.CorpusLimit),
		search.WithErrorFunc(func(message string, err error) {
			fmt.Fprintln(os.Stderr, errorStyle.Render(message))
		}),
	)
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl.Initialize(ctx)
	waitIdle(ctx, ctrl, a.Timeout)
	render(ctrl.Snapshot(), address.String())

	sh := &shell{ctrl: ctrl, updater: api}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		show, err := sh.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			continue
		}
		if show {
			waitIdle(ctx, ctrl, a.Timeout)
			render(ctrl.Snapshot(), address.String())
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// waitIdle polls until the current page fetch settles
func waitIdle(ctx context.Context, ctrl *search.Controller, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for ctrl.Snapshot().Loading && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func render(v search.View, address string) {
	rows := make([][]string, 0, len(v.Items))
	for _, it := range v.Items {
		rows = append(rows, []string{
			it.AssetID,
			it.Name,
			refName(it.Location),
			refName(it.Category),
			strconv.Itoa(it.Quantity),
			it.PurchasePrice.StringFixed(2),
			it.ID.String(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ASSET", "NAME", "LOCATION", "CATEGORY", "QTY", "PRICE", "ID").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})

	pages := 1
	if v.PageSize > 0 && v.TotalItems > 0 {
		pages = (v.TotalItems + v.PageSize - 1) / v.PageSize
	}

	// search results are unpaginated
	var status []string
	if !v.Searching {
		status = append(status, fmt.Sprintf("page %d/%d", v.PageIndex+1, pages))
	}
	status = append(status, fmt.Sprintf("%d items", v.TotalItems))
	status = append(status, fmt.Sprintf("sort %s %s", v.SortField, v.SortDirection))
	if v.QueryText != "" {
		status = append(status, fmt.Sprintf("search %q", v.QueryText))
	}
	if v.Searching {
		status = append(status, "searching")
	}
	status = append(status, "mode "+string(v.Mode), "snapshot "+v.Corpus.String())

	fmt.Println(t.String())
	fmt.Println(dimStyle.Render(strings.Join(status, " | ")))
	fmt.Println(dimStyle.Render(address))
	if v.Error != "" {
		fmt.Println(errorStyle.Render(v.Error))
	}
}

func refName(r *domain.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}
