// Package publish keeps the external status messages in step with the
// rendered report. Each (family, part) block owns one message that gets
// edited in place; messages are only created when missing.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/pyrowatch/pyrowatch/pkg/discord"
	"github.com/pyrowatch/pyrowatch/pkg/report"
)

// stalePlaceholder replaces blocks a family no longer needs, so a shrunk
// report does not leave outdated stock lines visible.
const stalePlaceholder = "_This part is no longer in use._"

// Messenger is the narrow slice of the chat platform the engine consumes.
// A lookup miss must be reported as discord.ErrNotFound.
type Messenger interface {
	Send(ctx context.Context, content string) (string, error)
	Fetch(ctx context.Context, messageID string) (string, error)
	Edit(ctx context.Context, messageID, content string) error
}

// Store is the message-ID half of the snapshot.
type Store interface {
	MessageID(ctx context.Context, family string, part int) (string, error)
	SetMessageID(ctx context.Context, family string, part int, id string) error
	MessageParts(ctx context.Context, family string) (map[int]string, error)
}

// Logger matches the logging interface the monitor passes around.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Publisher syncs rendered family reports to the messaging platform.
type Publisher struct {
	Store     Store
	Messenger Messenger
	Log       Logger
}

// Sync pushes every family's blocks. A failure in one family is logged
// and collected but never stops the remaining families: one deleted or
// blocked message must not stall the whole report.
func (p *Publisher) Sync(ctx context.Context, families []report.FamilyReport) []error {
	log := p.Log
	if log == nil {
		log = nopLogger{}
	}

	var errs []error
	for _, fr := range families {
		if err := p.syncFamily(ctx, fr, log); err != nil {
			log.Errorf("sync failed for family %s: %v", fr.Family, err)
			errs = append(errs, fmt.Errorf("family %s: %w", fr.Family, err))
		}
	}
	return errs
}

func (p *Publisher) syncFamily(ctx context.Context, fr report.FamilyReport, log Logger) error {
	for _, block := range fr.Blocks {
		if err := p.syncBlock(ctx, block); err != nil {
			return fmt.Errorf("part %d: %w", block.Part, err)
		}
	}

	// Blank out stored parts beyond what this cycle rendered.
	parts, err := p.Store.MessageParts(ctx, fr.Family)
	if err != nil {
		return fmt.Errorf("list stored parts: %w", err)
	}
	for part, id := range parts {
		if part <= len(fr.Blocks) {
			continue
		}
		if err := p.Messenger.Edit(ctx, id, stalePlaceholder); err != nil {
			if errors.Is(err, discord.ErrNotFound) {
				continue // already gone, nothing to blank
			}
			return fmt.Errorf("blank stale part %d: %w", part, err)
		}
		log.Debugf("blanked stale part %d of family %s", part, fr.Family)
	}
	return nil
}

// syncBlock resolves the stored message for one block and edits it, or
// creates it when it was never sent or has been deleted externally.
func (p *Publisher) syncBlock(ctx context.Context, block report.Block) error {
	id, err := p.Store.MessageID(ctx, block.Family, block.Part)
	if err != nil {
		return fmt.Errorf("load message id: %w", err)
	}

	if id != "" {
		_, err := p.Messenger.Fetch(ctx, id)
		switch {
		case err == nil:
			if err := p.Messenger.Edit(ctx, id, block.Content); err != nil {
				if errors.Is(err, discord.ErrNotFound) {
					break // deleted between fetch and edit; re-create below
				}
				return fmt.Errorf("edit message %s: %w", id, err)
			}
			return nil
		case errors.Is(err, discord.ErrNotFound):
			// Fall through to re-creation.
		default:
			return fmt.Errorf("fetch message %s: %w", id, err)
		}
	}

	newID, err := p.Messenger.Send(ctx, block.Content)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if err := p.Store.SetMessageID(ctx, block.Family, block.Part, newID); err != nil {
		return fmt.Errorf("store message id: %w", err)
	}
	return nil
}
