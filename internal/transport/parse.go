package transport

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/model"
)

var statusLine = regexp.MustCompile(`(?i)^(HTTP/1\.\d)[ \t]+(\d{3})(?:[ \t]|$)`)

var unfold = strings.NewReplacer("\n ", " ", "\n\t", " ")

// Parse turns the final captured header block and body into a Response.
// It fails when the header block was never terminated, when the status
// line is not HTTP/1.x, or when the status code is not a 2xx.
func Parse(url string, s *TransferState) (*model.Response, error) {
	if !s.HeaderDone() || len(s.Header()) == 0 {
		return nil, errors.MalformedResponseError{URL: url, Expected: errors.ExpectedSeparator}
	}

	lines := strings.Split(unfold.Replace(strings.ReplaceAll(string(s.Header()), "\r\n", "\n")), "\n")

	m := statusLine.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, errors.MalformedResponseError{URL: url, Expected: errors.ExpectedStatusLine}
	}
	code, _ := strconv.Atoi(m[2])
	if err := model.CheckStatus(url, code); err != nil {
		return nil, err
	}

	header := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		header[k] = strings.Join(strings.Fields(v), " ")
	}

	return &model.Response{
		Proto:  strings.ToUpper(m[1]),
		Status: model.NewStatus(code),
		Header: header,
		Body:   s.Body(),
	}, nil
}

// statusCode extracts the code from a header block, returning -1 when the
// block does not start with a valid status line.
func statusCode(header []byte) int {
	end := len(header)
	for i, c := range header {
		if c == '\n' {
			end = i
			break
		}
	}
	m := statusLine.FindSubmatch(bytes.TrimRight(header[:end], "\r"))
	if m == nil {
		return -1
	}
	code, _ := strconv.Atoi(string(m[2]))
	return code
}
