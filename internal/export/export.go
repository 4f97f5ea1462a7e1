// Package export renders wall posts into a plain-text archive file.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"wallsweep/internal/vk"
)

const (
	DefaultFilename = "vk_posts.txt"

	blockRule  = 50
	headerRule = 60
)

// Format renders one block per post with visible text. Posts whose
// text is empty or whitespace-only are skipped, order is preserved and
// the text is written in full.
func Format(posts []vk.Post) []string {
	blocks := make([]string, 0, len(posts))
	for _, post := range posts {
		if strings.TrimSpace(post.Text) == "" {
			continue
		}
		date := time.Unix(post.Date, 0).Format("2006-01-02 15:04:05")
		blocks = append(blocks, fmt.Sprintf("Date: %s\nText: %s\n%s", date, post.Text, strings.Repeat("-", blockRule)))
	}
	return blocks
}

// Save overwrites path with a count header followed by the blocks.
func Save(path string, blocks []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Total posts: %d\n", len(blocks))
	b.WriteString(strings.Repeat("=", headerRule) + "\n\n")
	for _, block := range blocks {
		b.WriteString(block + "\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save posts: %w", err)
	}
	return nil
}
