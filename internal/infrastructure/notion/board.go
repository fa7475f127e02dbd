package notion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomei/notionapi"

	"CanvasNotionSync/internal/domain"
	"CanvasNotionSync/internal/ports"
)

const childPageSize = 100

// Board recreates the target assignment database under the configured
// parent page and writes one page per assignment into it.
type Board struct {
	client        *notionapi.Client
	parentPageID  string
	databaseTitle string
	logger        *slog.Logger
}

var _ ports.DatabaseManager = (*Board)(nil)
var _ ports.PageWriter = (*Board)(nil)

// NewBoard builds a Notion client with built-in 429 retry.
func NewBoard(token, parentPageID, databaseTitle string, logger *slog.Logger) *Board {
	client := notionapi.NewClient(notionapi.Token(token), notionapi.WithRetry(3))
	return &Board{
		client:        client,
		parentPageID:  parentPageID,
		databaseTitle: databaseTitle,
		logger:        logger,
	}
}

// EnsureDatabase archives any previous database with the configured
// title and creates a fresh one with the fixed schema. The old data is
// destroyed on purpose: every run rebuilds the board from scratch.
func (b *Board) EnsureDatabase(ctx context.Context) (string, error) {
	existing, err := b.findExisting(ctx)
	if err != nil {
		return "", fmt.Errorf("search parent page: %w", err)
	}

	if existing != "" {
		// Archiving an already-archived or empty database is harmless;
		// a failure here must not stop the fresh database from being
		// created.
		if _, err := b.client.Block.Delete(ctx, notionapi.BlockID(existing)); err != nil {
			b.warn("archive previous database failed", "block_id", existing, "error", err)
		} else {
			b.debug("archived previous database", "block_id", existing)
		}
	}

	db, err := b.client.Database.Create(ctx, b.createRequest())
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}

	b.debug("created database", "database_id", string(db.ID))
	return string(db.ID), nil
}

// findExisting walks the parent page's children looking for an active
// child database with the exact configured title.
func (b *Board) findExisting(ctx context.Context) (string, error) {
	pagination := &notionapi.Pagination{PageSize: childPageSize}

	for {
		resp, err := b.client.Block.GetChildren(ctx, notionapi.BlockID(b.parentPageID), pagination)
		if err != nil {
			return "", err
		}

		for _, block := range resp.Results {
			child, ok := block.(*notionapi.ChildDatabaseBlock)
			if !ok || child.Archived {
				continue
			}
			if child.ChildDatabase.Title == b.databaseTitle {
				return string(child.ID), nil
			}
		}

		if !resp.HasMore {
			return "", nil
		}
		pagination.StartCursor = notionapi.Cursor(resp.NextCursor)
	}
}

func (b *Board) createRequest() *notionapi.DatabaseCreateRequest {
	return &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(b.parentPageID),
		},
		Title: []notionapi.RichText{
			{Text: &notionapi.Text{Content: b.databaseTitle}},
		},
		Properties: databaseProperties(),
	}
}

// CreatePage inserts one row for the assignment. The database was just
// created empty, so every write is a plain creation.
func (b *Board) CreatePage(ctx context.Context, databaseID string, a domain.Assignment) error {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: pageProperties(a),
	}

	if _, err := b.client.Page.Create(ctx, req); err != nil {
		return fmt.Errorf("create page for assignment %s: %w", a.ID, err)
	}
	return nil
}

func (b *Board) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Board) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
