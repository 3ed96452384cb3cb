package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/twy/backoffice/app"
	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
)

var errNotSignedIn = errors.New("not signed in, run: backoffice login")

type cli struct {
	deps      *app.Dependencies
	loginPath string
	// set while login runs; its own 401 is a credential error, not an
	// expired session
	loggingIn bool
	out       io.Writer
	errOut    io.Writer
}

// Navigate implements client.Navigator. A terminal has no routes, so a
// forced logout becomes a hint.
func (c *cli) Navigate(path string) {
	if path == c.loginPath && !c.loggingIn {
		fmt.Fprintln(c.errOut, "session expired, run: backoffice login")
	}
}

func (c *cli) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "login":
		return c.login(ctx, args)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami(ctx)
	case "menu":
		return c.menu(ctx)
	case "users":
		return c.users(ctx, args)
	case "branches":
		return c.branches(ctx, args)
	case "loads":
		return c.loads(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("BACKOFFICE_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.loggingIn = true
	err := c.deps.Session.Login(ctx, *email, *password)
	c.loggingIn = false
	if err != nil {
		return describe(err)
	}
	identity, _ := c.deps.Session.Identity(ctx)
	if identity != nil {
		fmt.Fprintf(c.out, "signed in as %s (%s)\n", identity.DisplayName(), identity.Role)
	}
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	c.deps.Session.Logout(ctx)
	fmt.Fprintln(c.out, "signed out")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	me, err := c.deps.Services.Users.Current(ctx)
	if err != nil {
		return describe(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s %s\n", me.FirstName, me.LastName)
	fmt.Fprintf(w, "Email\t%s\n", me.Email)
	fmt.Fprintf(w, "Role\t%s\n", me.Role)
	if me.Branch != nil {
		fmt.Fprintf(w, "Branch\t%s\n", me.Branch.Name)
	}
	return w.Flush()
}

func (c *cli) menu(ctx context.Context) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, item := range c.deps.Session.Menu(ctx) {
		fmt.Fprintf(w, "%s\t%s\n", item.Label, item.Path)
	}
	return w.Flush()
}

func (c *cli) users(ctx context.Context, args []string) error {
	params, err := c.listFlags("users", args)
	if err != nil {
		return err
	}
	if err := c.open(ctx, rbac.FeatureUsers); err != nil {
		return err
	}
	page, err := c.deps.Services.Users.List(ctx, params)
	if err != nil {
		return describe(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range page.Users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.FullName(), u.Email, u.Role, u.IsActive)
	}
	fmt.Fprintf(w, "page %d of %d, %d total\n", page.Page+1, max(page.TotalPages, 1), page.Total)
	return w.Flush()
}

func (c *cli) branches(ctx context.Context, args []string) error {
	params, err := c.listFlags("branches", args)
	if err != nil {
		return err
	}
	if err := c.open(ctx, rbac.FeatureBranches); err != nil {
		return err
	}
	page, err := c.deps.Services.Branches.List(ctx, params)
	if err != nil {
		return describe(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOWNER\tCONTACT")
	for _, b := range page.Branches {
		owner, contact := "-", "-"
		if b.Owner != nil {
			owner = strings.TrimSpace(b.Owner.FirstName + " " + b.Owner.LastName)
		}
		if b.Contact != nil {
			contact = *b.Contact
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, owner, contact)
	}
	fmt.Fprintf(w, "%d total\n", page.Total)
	return w.Flush()
}

func (c *cli) loads(ctx context.Context, args []string) error {
	params, err := c.listFlags("loads", args)
	if err != nil {
		return err
	}
	if err := c.open(ctx, rbac.FeatureLoads); err != nil {
		return err
	}
	page, err := c.deps.Services.Loads.List(ctx, params)
	if err != nil {
		return describe(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tCUSTOMER\tSTATUS\tREVIEWED BY")
	for _, l := range page.Loads {
		reviewer := "-"
		if l.StatusChangedBy != nil {
			reviewer = *l.StatusChangedBy
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ReferenceNumber, l.Customer, l.Status, reviewer)
	}
	fmt.Fprintf(w, "%d total\n", page.Total)
	return w.Flush()
}

func (c *cli) listFlags(name string, args []string) (models.ListParams, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	page := fs.Int("page", 0, "zero-based page")
	limit := fs.Int("limit", 0, "page size")
	query := fs.String("query", "", "search text")
	sortField := fs.String("sort", "", "sort field")
	desc := fs.Bool("desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return models.ListParams{}, err
	}

	params := models.ListParams{Query: *query, SortField: *sortField}
	if *page > 0 {
		params.Page = models.Int(*page)
	}
	if *limit > 0 {
		params.Limit = models.Int(*limit)
	}
	if *sortField != "" {
		params.SortOrder = models.SortAscend
		if *desc {
			params.SortOrder = models.SortDescend
		}
	}
	return params, nil
}

// requireSession restores the stored session, refreshing an expired access
// token once
func (c *cli) requireSession(ctx context.Context) error {
	c.deps.Session.Init(ctx)
	if !c.deps.Session.IsAuthenticated(ctx) {
		return errNotSignedIn
	}
	return nil
}

// open applies the same guard a page route would
func (c *cli) open(ctx context.Context, feature rbac.Feature) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	role, _ := c.deps.Session.Role(ctx)
	if decision := rbac.Guard(role, feature); !decision.Allowed {
		return fmt.Errorf("your role cannot open %s", feature)
	}
	return nil
}

// describe turns an API error into the text a user sees
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	info := client.Describe(err)
	if info.Title == "Error" {
		return errors.New(info.Content)
	}
	return fmt.Errorf("%s: %s", info.Title, info.Content)
}
