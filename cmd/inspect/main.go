// Command inspect dumps the chat keys of a badger directory as a table.
// It opens the store read-only, so it can run next to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"kinder-chat/domain"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB, BADGER_FILEPATH by default")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, conversation:, participant:, membership:, user:)")
	limit := flag.Int("limit", 200, "Maximum rows printed")
	colours := flag.Bool("colours", true, "Colorize read flags")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("-db or BADGER_FILEPATH is required")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Time", "Who", "Detail", "State"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes) && rows < *limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				row, err := toRow(key, v, *colours)
				if err != nil {
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append(row)
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d rows under %q\n", rows, *prefix)
}

func toRow(key string, v []byte, colours bool) ([]string, error) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, err
		}
		detail := m.Content
		if m.ImageURL != "" {
			detail = strings.TrimSpace(detail + " [" + m.ImageURL + "]")
		}
		state := "unread"
		if m.IsRead {
			state = "read"
		}
		if colours {
			state = color.New(lo.Ternary(m.IsRead, color.FgGreen, color.FgYellow)).Render(state)
		}
		return []string{shorten(key), clock(m.SentAt), m.SenderID, detail, state}, nil
	case strings.HasPrefix(key, "conversation:"):
		var c domain.Conversation
		if err := json.Unmarshal(v, &c); err != nil {
			return nil, err
		}
		state := "direct"
		if c.IsClassGroup {
			state = "class " + c.ClassID
		}
		last := ""
		if c.LastMessageAt != nil {
			last = clock(*c.LastMessageAt)
		}
		return []string{key, last, "", c.Title, state}, nil
	case strings.HasPrefix(key, "participant:"), strings.HasPrefix(key, "membership:"):
		var p domain.Participant
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, err
		}
		return []string{key, clock(p.JoinedAt), p.UserID, p.ConversationID, ""}, nil
	case strings.HasPrefix(key, "user:"):
		var u domain.User
		if err := json.Unmarshal(v, &u); err != nil {
			return nil, err
		}
		return []string{key, "", u.Username, u.FullName, string(u.Role)}, nil
	default:
		return []string{key, "", "", fmt.Sprintf("%d bytes", len(v)), ""}, nil
	}
}

func clock(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// shorten drops the timestamp segment of message keys for readability.
func shorten(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) != 4 {
		return key
	}
	id := parts[3]
	if len(id) > 8 {
		id = id[:8]
	}
	return parts[0] + ":" + parts[1] + ":" + id
}
