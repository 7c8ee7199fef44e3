package collect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
)

const (
	inboxLabelId        = "INBOX"
	categoryLabelPrefix = "CATEGORY_"
)

// Labels that never make sense as an attachment source. Every CATEGORY_
// label is dropped as well.
var excludedLabels = map[string]bool{
	"DRAFT": true,
	"SPAM":  true,
	"TRASH": true,
	"CHAT":  true,
}

var friendlyLabelNames = map[string]string{
	"INBOX":               "📥 Inbox",
	"SENT":                "📤 Sent",
	"IMPORTANT":           "⭐ Important",
	"STARRED":             "⭐ Starred",
	"UNREAD":              "📬 Unread",
	"DRAFT":               "📝 Drafts",
	"SPAM":                "🚫 Spam",
	"TRASH":               "🗑️ Trash",
	"CATEGORY_PERSONAL":   "👤 Personal",
	"CATEGORY_SOCIAL":     "👥 Social",
	"CATEGORY_PROMOTIONS": "🏷️ Promotions",
	"CATEGORY_UPDATES":    "🔄 Updates",
	"CATEGORY_FORUMS":     "💬 Forums",
}

type GmailFolder struct {
	Id             string `json:"id"`
	Name           string `json:"name"`
	MessagesTotal  int64  `json:"messagesTotal"`
	MessagesUnread int64  `json:"messagesUnread"`
	ThreadsTotal   int64  `json:"threadsTotal"`
	ThreadsUnread  int64  `json:"threadsUnread"`
}

// FriendlyLabelName maps system label ids to display names. User labels
// get a folder icon in front of their own name.
func FriendlyLabelName(id string, name string) string {
	if friendly, ok := friendlyLabelNames[id]; ok {
		return friendly
	}
	return "📁 " + name
}

func (g *Google) getGmailService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	gmailService, err := gmail.NewService(ctx, g.clientOptions(accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return gmailService, nil
}

// GetIdentity returns the mailbox address behind accessToken.
func (g *Google) GetIdentity(ctx context.Context, accessToken string) (string, error) {
	gmailService, err := g.getGmailService(ctx, accessToken)
	if err != nil {
		return "", err
	}
	profileInfo, err := gmailService.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get user profile from Gmail API: %w", err)
	}
	return profileInfo.EmailAddress, nil
}

// ListGmailFolders returns the selectable labels of the mailbox with their
// counts, INBOX first and then busiest first.
func (g *Google) ListGmailFolders(ctx context.Context, accessToken string) ([]GmailFolder, error) {
	gmailService, err := g.getGmailService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	// Diagnostic only.
	profile, err := gmailService.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		logProviderError("Gmail profile probe failed", err)
	} else {
		slog.Info("Gmail profile", "email", profile.EmailAddress, "messages_total", profile.MessagesTotal)
	}

	labelList, err := gmailService.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		logProviderError("Failed to list Gmail labels", err)
		return nil, fmt.Errorf("failed to list gmail labels: %w", err)
	}

	details, err := g.getLabelDetails(ctx, gmailService, labelList.Labels)
	if err != nil {
		return nil, err
	}
	return buildGmailFolders(details), nil
}

// getLabelDetails fetches every label's counts concurrently. The result
// keeps the order of labels.
func (g *Google) getLabelDetails(ctx context.Context, gmailService *gmail.Service, labels []*gmail.Label) ([]*gmail.Label, error) {
	details := make([]*gmail.Label, len(labels))
	throttler := rate.NewLimiter(g.limit, g.burst)
	eg, egCtx := errgroup.WithContext(ctx)
	for idx, label := range labels {
		if label == nil || label.Id == "" {
			continue
		}
		eg.Go(func() error {
			if err := throttler.Wait(egCtx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
			detail, err := gmailService.Users.Labels.Get("me", label.Id).Context(egCtx).Do()
			if err != nil {
				logProviderError("Failed to get Gmail label", err, "label_id", label.Id)
				return fmt.Errorf("failed to get gmail label %s: %w", label.Id, err)
			}
			details[idx] = detail
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

func buildGmailFolders(labels []*gmail.Label) []GmailFolder {
	folders := make([]GmailFolder, 0, len(labels))
	for _, label := range labels {
		if label == nil || label.Id == "" || label.Name == "" {
			continue
		}
		if excludedLabels[label.Id] || strings.HasPrefix(label.Id, categoryLabelPrefix) {
			continue
		}
		folders = append(folders, GmailFolder{
			Id:             label.Id,
			Name:           FriendlyLabelName(label.Id, label.Name),
			MessagesTotal:  label.MessagesTotal,
			MessagesUnread: label.MessagesUnread,
			ThreadsTotal:   label.ThreadsTotal,
			ThreadsUnread:  label.ThreadsUnread,
		})
	}
	// Collators keep internal buffers, so each sort gets its own.
	slices.SortStableFunc(folders, gmailFolderOrder(collate.New(language.Und)))
	return folders
}

// gmailFolderOrder puts INBOX first, then the largest folders, then names in
// collation order.
func gmailFolderOrder(collator *collate.Collator) func(a, b GmailFolder) int {
	return func(a, b GmailFolder) int {
		return compareGmailFolders(collator, a, b)
	}
}

func compareGmailFolders(collator *collate.Collator, a, b GmailFolder) int {
	aInbox := a.Id == inboxLabelId
	bInbox := b.Id == inboxLabelId
	switch {
	case aInbox && !bInbox:
		return -1
	case bInbox && !aInbox:
		return 1
	case a.MessagesTotal != b.MessagesTotal:
		if a.MessagesTotal > b.MessagesTotal {
			return -1
		}
		return 1
	}
	return collator.CompareString(a.Name, b.Name)
}
