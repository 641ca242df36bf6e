// Package csvio reads the CSV files that drive batch account creation and
// deletion, and writes user exports. Input files carry no header row: lines
// whose first character is '#' are comments, everything else is data.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

// UserRecord is one row of a creation CSV. The last four fields are nil when
// the row was shorter than the full schema; a nil field was never written,
// which is different from an empty one.
type UserRecord struct {
	Username     string `validate:"required"`
	Name         string `validate:"required"`
	Email        string `validate:"required,email"`
	Organization *string
	Location     *string
	Group        *string
	AccessLevel  *string
}

// ReadNewUsers parses a creation CSV with the fixed field order
// username,name,email,organization,location,group,access_level. Fields are
// whitespace-trimmed; rows may omit trailing fields.
func ReadNewUsers(path string) ([]UserRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := readRows(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var records []UserRecord
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

// ReadUsernames parses a deletion list: first column of every non-comment,
// non-blank row, in file order.
func ReadUsernames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := readRows(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var usernames []string
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		usernames = append(usernames, row[0])
	}
	return usernames, nil
}

// WriteUsers exports users as id,username,name,email,state rows with a
// header, one row per user, preserving order.
func WriteUsers(w io.Writer, users []directory.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "username", "name", "email", "state"}); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{fmt.Sprint(u.ID), u.Username, u.Name, u.Email, u.State}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readRows strips comment lines before handing the rest to the CSV reader,
// and trims every field. Blank lines produce no row.
func readRows(r io.Reader) ([][]string, error) {
	var data strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		data.WriteString(line)
		data.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(data.String()))
	reader.FieldsPerRecord = -1 // rows may omit trailing fields

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

func recordFromRow(row []string) UserRecord {
	var rec UserRecord
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	getPtr := func(i int) *string {
		if i < len(row) {
			v := row[i]
			return &v
		}
		return nil
	}

	rec.Username = get(0)
	rec.Name = get(1)
	rec.Email = get(2)
	rec.Organization = getPtr(3)
	rec.Location = getPtr(4)
	rec.Group = getPtr(5)
	rec.AccessLevel = getPtr(6)
	return rec
}
