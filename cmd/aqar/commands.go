package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rajivgeraev/aqar/internal/app"
	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/search"
)

var errUsage = errors.New("wrong arguments, run aqar -h")

func runPrefs(a *app.App, args []string) error {
	if len(args) == 0 || args[0] == "get" {
		return printJSON(a.Prefs.Get())
	}
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return errUsage
		}
		return a.Prefs.Set(args[1], parseValue(args[2]))
	case "reset":
		a.Prefs.Reset()
		return nil
	default:
		return errUsage
	}
}

// parseValue превращает true/false в bool, остальное оставляет строкой
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func runHistory(a *app.App, args []string) error {
	if len(args) > 0 {
		if args[0] != "clear" {
			return errUsage
		}
		a.History.Clear()
		return nil
	}
	for _, route := range a.History.List() {
		fmt.Println(route)
	}
	return nil
}

func runSearch(a *app.App, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		for _, term := range a.Search.RecentSearches() {
			fmt.Println(term)
		}
		return nil
	}
	switch args[0] {
	case "add":
		a.Search.AddRecentSearch(strings.Join(args[1:], " "))
		return nil
	case "clear":
		a.Search.ClearRecentSearches()
		return nil
	default:
		return errUsage
	}
}

func runFilters(a *app.App, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		f, ok := a.Search.Filters()
		if !ok {
			f = search.DefaultFilters()
		}
		return printJSON(f)
	}

	switch args[0] {
	case "reset":
		a.Search.SaveFilters(search.DefaultFilters())
		return nil
	case "set", "save":
		f, ok := a.Search.Filters()
		if !ok {
			f = search.DefaultFilters()
		}
		if err := applyFilters(&f, args[1:]); err != nil {
			return err
		}
		if args[0] == "save" {
			a.Search.SaveFilters(f)
			return nil
		}
		if !a.Search.AutoSave(f) {
			fmt.Println("auto-save is off, use 'filters save' to keep these filters")
		}
		return nil
	default:
		return errUsage
	}
}

func applyFilters(f *search.Filters, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", pair)
		}
		switch key {
		case "category":
			f.Category = value
		case "city":
			f.City = value
		case "listingType", "type":
			f.ListingType = value
		case "minPrice":
			f.MinPrice = value
		case "maxPrice":
			f.MaxPrice = value
		default:
			return fmt.Errorf("unknown filter %q", key)
		}
	}
	return nil
}

func runFavorites(ctx context.Context, a *app.App, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}

	if sub == "watch" {
		loads, cancel := a.Favorites.Subscribe()
		defer cancel()
		a.Start(ctx)
		for {
			select {
			case <-ctx.Done():
				return nil
			case list, ok := <-loads:
				if !ok {
					return nil
				}
				printListings(list)
			}
		}
	}

	a.Start(ctx)

	switch sub {
	case "list":
		printListings(a.Favorites.Records())
		return nil
	case "add", "remove", "toggle", "check":
		if len(args) != 2 {
			return errUsage
		}
	default:
		return errUsage
	}

	id := args[1]
	switch sub {
	case "add":
		a.Favorites.Add(ctx, id)
	case "remove":
		a.Favorites.Remove(ctx, id)
	case "toggle":
		a.Favorites.Toggle(ctx, id)
	case "check":
		fmt.Println(a.Favorites.IsFavorite(id))
	}
	return nil
}

func printListings(list []models.Listing) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, l := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d %s\n", l.ID, l.Title, l.City, l.Price, l.Currency)
	}
	_ = w.Flush()
	fmt.Printf("total: %d\n", len(list))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
