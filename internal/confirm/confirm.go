// Package confirm implements the typed-phrase gates that stand between
// the user and a bulk delete. The gates only read and compare; they
// never touch the network.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"wallsweep/internal/vk"
)

const (
	// The phrases are matched exactly. Only the line terminator is
	// stripped, so case changes or stray spaces abort.
	fastPhrase  = "DELETE ALL"
	firstPhrase = "DELETE MY POSTS"
	finalPhrase = "YES I AM SURE"

	previewLimit = 5
	previewRunes = 100
)

// Gate prompts on out and reads confirmation phrases from in.
type Gate struct {
	in  *bufio.Reader
	out io.Writer
}

func NewGate(in io.Reader, out io.Writer) *Gate {
	return &Gate{in: bufio.NewReader(in), out: out}
}

// Fast is the quick path: one warning, one phrase.
func (g *Gate) Fast() bool {
	fmt.Fprintln(g.out, "WARNING! THIS OPERATION IS IRREVERSIBLE!")
	fmt.Fprintln(g.out, "All posts will be deleted with no way to restore them!")

	return g.ask("Are you sure? (type 'DELETE ALL' to confirm): ", fastPhrase)
}

// Thorough previews the collection, then requires two phrases in
// order. Failing the first never asks for the second.
func (g *Gate) Thorough(posts []vk.Post) bool {
	fmt.Fprintf(g.out, "\nFound posts: %d\n", len(posts))
	fmt.Fprintln(g.out, "First 5 posts as a sample:")
	for i, post := range posts {
		if i == previewLimit {
			break
		}
		date := time.Unix(post.Date, 0).Format("2006-01-02")
		fmt.Fprintf(g.out, "%d. [%s] %s\n", i+1, date, truncate(post.Text, previewRunes))
	}

	fmt.Fprintf(g.out, "\nWARNING! ALL %d POSTS WILL BE DELETED!\n", len(posts))
	fmt.Fprintln(g.out, "This action cannot be undone!")

	if !g.ask("\nType 'DELETE MY POSTS' to confirm: ", firstPhrase) {
		return false
	}
	return g.ask("Type 'YES I AM SURE' for final confirmation: ", finalPhrase)
}

func (g *Gate) ask(prompt, phrase string) bool {
	fmt.Fprint(g.out, prompt)

	line, err := g.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimRight(line, "\r\n") == phrase
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
