package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Commands provides command-line operations for the client
type Commands struct {
	client *Client
	out    io.Writer
}

// NewCommands creates a new Commands instance printing to out
func NewCommands(client *Client, out io.Writer) *Commands {
	return &Commands{
		client: client,
		out:    out,
	}
}

// Create creates a short link and displays the result
func (c *Commands) Create(ctx context.Context, originalURL string, clickLimit *int) error {
	result, err := c.client.CreateLink(ctx, originalURL, clickLimit)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Short link created:\n")
	c.printLink(&result.Link)
	fmt.Fprintf(c.out, "User ID: %s\n", result.UserID)
	return nil
}

// Get retrieves and displays one of the caller's links
func (c *Commands) Get(ctx context.Context, id int64) error {
	link, err := c.client.GetLink(ctx, id)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			fmt.Fprintf(c.out, "Link %d not found\n", id)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Link Information:\n")
	c.printLink(link)
	return nil
}

// Update changes a link's URL and/or click limit and displays the result
func (c *Commands) Update(ctx context.Context, id int64, originalURL *string, clickLimit *int) error {
	link, err := c.client.UpdateLink(ctx, id, originalURL, clickLimit)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			fmt.Fprintf(c.out, "Link %d not found\n", id)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Link updated:\n")
	c.printLink(link)
	return nil
}

// Delete removes one of the caller's links
func (c *Commands) Delete(ctx context.Context, id int64) error {
	if err := c.client.DeleteLink(ctx, id); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			fmt.Fprintf(c.out, "Link %d not found\n", id)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Link %d deleted successfully\n", id)
	return nil
}

// List displays the caller's links in a table format
func (c *Commands) List(ctx context.Context) error {
	links, err := c.client.ListLinks(ctx)
	if err != nil {
		return err
	}

	if len(links) == 0 {
		fmt.Fprintln(c.out, "No links found")
		return nil
	}

	fmt.Fprintf(c.out, "%-6s %-10s %-50s %-10s %-20s %s\n", "ID", "Code", "Original URL", "Clicks", "Expires At", "Active")
	fmt.Fprintln(c.out, strings.Repeat("-", 110))

	for _, link := range links {
		fmt.Fprintf(c.out, "%-6d %-10s %-50s %-10s %-20s %t\n",
			link.ID,
			link.ShortCode,
			truncate(link.OriginalURL, 50),
			clicks(link.ClicksCount, link.ClickLimit),
			link.ExpiresAt.Format("2006-01-02 15:04:05"),
			link.Active,
		)
	}
	return nil
}

// Notifications displays the caller's notifications
func (c *Commands) Notifications(ctx context.Context, unreadOnly bool) error {
	notes, err := c.client.ListNotifications(ctx, unreadOnly)
	if err != nil {
		return err
	}

	if len(notes) == 0 {
		fmt.Fprintln(c.out, "No notifications")
		return nil
	}

	for _, n := range notes {
		marker := "*"
		if n.Read {
			marker = " "
		}
		fmt.Fprintf(c.out, "%s [%d] %s %-20s %s\n",
			marker, n.ID, n.CreatedAt.Format("2006-01-02 15:04:05"), n.Type, n.Message)
	}
	return nil
}

// Read marks a notification as read
func (c *Commands) Read(ctx context.Context, id int64) error {
	if err := c.client.MarkRead(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Notification %d marked as read\n", id)
	return nil
}

// Open consumes one click on a short code and prints where it leads
func (c *Commands) Open(ctx context.Context, shortCode string) error {
	location, err := c.client.Open(ctx, shortCode)
	if err != nil {
		switch {
		case IsStatus(err, http.StatusNotFound):
			fmt.Fprintf(c.out, "Short code '%s' not found\n", shortCode)
			return nil
		case IsStatus(err, http.StatusForbidden):
			fmt.Fprintf(c.out, "Short code '%s' belongs to another user\n", shortCode)
			return nil
		case IsStatus(err, http.StatusGone):
			fmt.Fprintf(c.out, "Short code '%s' is no longer available: %v\n", shortCode, err)
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Redirects to: %s\n", location)
	return nil
}

func (c *Commands) printLink(link *domain.LinkResponse) {
	fmt.Fprintf(c.out, "ID: %d\n", link.ID)
	fmt.Fprintf(c.out, "Short Code: %s\n", link.ShortCode)
	fmt.Fprintf(c.out, "Short URL: %s\n", link.ShortURL)
	fmt.Fprintf(c.out, "Original URL: %s\n", link.OriginalURL)
	fmt.Fprintf(c.out, "Clicks: %s\n", clicks(link.ClicksCount, link.ClickLimit))
	fmt.Fprintf(c.out, "Created At: %s\n", link.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(c.out, "Expires At: %s\n", link.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(c.out, "Active: %t\n", link.Active)
}

func clicks(count int, limit *int) string {
	if limit == nil {
		return fmt.Sprintf("%d", count)
	}
	return fmt.Sprintf("%d/%d", count, *limit)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
