package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/labelaudit/internal/domain/types"
)

// Block is one element of a chat message layout.
type Block struct {
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

// Text is the text object of a section block.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is the payload posted to the chat webhook.
type Message struct {
	Blocks []Block `json:"blocks"`
}

func section(text string) Block {
	return Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: text}}
}

// Blocks lays out leaderboard entries as chat blocks.
func Blocks(entries []types.Entry) Message {
	msg := Message{Blocks: make([]Block, 0, len(entries))}
	for _, e := range entries {
		switch e.Kind {
		case types.EntryHeading:
			msg.Blocks = append(msg.Blocks, section(fmt.Sprintf("*%s*", e.Label)))
		case types.EntryLine:
			msg.Blocks = append(msg.Blocks, section(fmt.Sprintf("- %s | Review rate: %.1f%%", e.Annotator, e.Rate*100)))
		case types.EntryDivider:
			msg.Blocks = append(msg.Blocks, Block{Type: "divider"})
		}
	}
	return msg
}

// WriteBlocks encodes the entries as one JSON message.
func WriteBlocks(w io.Writer, entries []types.Entry) error {
	if err := json.NewEncoder(w).Encode(Blocks(entries)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
