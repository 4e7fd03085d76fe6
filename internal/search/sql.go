package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

type sqlSearcher struct {
	db *store.SQLite
}

func (s *sqlSearcher) Conversation(id string) (*parse.Conversation, error) {
	return s.db.Get(id)
}

// Reload is a no-op: every query reads the database.
func (s *sqlSearcher) Reload() {}

func (s *sqlSearcher) Search(opts Options) ([]Result, error) {
	normalizeLimit(&opts)

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = s.searchLike(opts)
	} else {
		results, err = s.searchFTS(opts)
	}
	if err != nil {
		return nil, err
	}
	return dedupe(results, origLimit), nil
}

// filters returns the shared source/role/since conditions.
func filters(opts Options) ([]string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	if opts.Source != "" {
		conditions = append(conditions, "c.source = ?")
		args = append(args, opts.Source)
	}
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}
	since, err := opts.sinceEpoch()
	if err != nil {
		return nil, nil, err
	}
	if opts.Since != "" {
		conditions = append(conditions, "c.update_time >= ?")
		args = append(args, since)
	}
	return conditions, args, nil
}

func (s *sqlSearcher) searchFTS(opts Options) ([]Result, error) {
	conditions, args, err := filters(opts)
	if err != nil {
		return nil, err
	}
	conditions = append([]string{"messages_fts MATCH ?"}, conditions...)
	args = append([]interface{}{ftsQuery(opts.Query)}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.conversation_id,
			m.pair_index,
			c.title,
			c.source,
			c.update_time,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			m.role,
			m.kind,
			bm25(messages_fts, 1.0) as rank,
			c.starred,
			c.pair_count
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN conversations c ON m.conversation_id = c.id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := s.db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (s *sqlSearcher) searchLike(opts Options) ([]Result, error) {
	conditions, args, err := filters(opts)
	if err != nil {
		return nil, err
	}
	// LIKE match for CJK substring search
	conditions = append([]string{"m.text LIKE ?"}, conditions...)
	args = append([]interface{}{"%" + opts.Query + "%"}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.conversation_id,
			m.pair_index,
			c.title,
			c.source,
			c.update_time,
			m.text,
			m.role,
			m.kind,
			c.starred,
			c.pair_count
		FROM messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE %s
		ORDER BY c.update_time DESC, m.seq
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := s.db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ConversationID, &r.PairIndex, &r.Title, &r.Source,
			&r.UpdateTime, &fullText, &r.Role, &r.Kind, &r.Starred, &r.PairCount); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns every conversation newest first; the snippet is the first question.
func (s *sqlSearcher) ListAll(opts Options) ([]Result, error) {
	normalizeLimit(&opts)
	var conditions []string
	var args []interface{}
	if opts.Source != "" {
		conditions = append(conditions, "c.source = ?")
		args = append(args, opts.Source)
	}
	since, err := opts.sinceEpoch()
	if err != nil {
		return nil, err
	}
	if opts.Since != "" {
		conditions = append(conditions, "c.update_time >= ?")
		args = append(args, since)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT
			c.id,
			c.title,
			c.source,
			c.update_time,
			c.starred,
			c.pair_count,
			COALESCE((SELECT m.text FROM messages m
			          WHERE m.conversation_id = c.id AND m.role = 'user'
			          ORDER BY m.seq LIMIT 1), '')
		FROM conversations c
		%s
		ORDER BY c.update_time DESC, c.id ASC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := s.db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{PairIndex: 1, Role: string(parse.RoleUser), Kind: store.KindText}
		var first string
		if err := rows.Scan(&r.ConversationID, &r.Title, &r.Source, &r.UpdateTime, &r.Starred, &r.PairCount, &first); err != nil {
			return nil, err
		}
		r.Snippet = firstLine(first)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery quotes each term so punctuation in user input is not read as
// FTS5 syntax. Input that already uses quotes or operators is passed through.
func ftsQuery(q string) string {
	if strings.ContainsAny(q, `"*():`) || strings.Contains(q, " OR ") || strings.Contains(q, " NOT ") {
		return q
	}
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + t + `"`
	}
	return strings.Join(terms, " ")
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConversationID, &r.PairIndex, &r.Title,
			&r.Source, &r.UpdateTime,
			&r.Snippet, &r.Role, &r.Kind, &r.Rank,
			&r.Starred, &r.PairCount,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
