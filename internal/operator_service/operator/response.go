package operator

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

type responseItem struct {
	SmsID  string `xml:"smsid"`
	Status string `xml:"status"`
}

// parseResponse extracts a {message identifier: operator status code} mapping
// from the operator's XML response. It scans for repeated dataitem elements
// wherever they sit in the document, so envelope changes around them do not
// break parsing. A dataitem that does not decode into a numeric identifier
// and status is a contract violation and fails the whole parse.
func parseResponse(prefix string, body []byte) (map[int64]domain.OperatorState, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	parsed := make(map[int64]domain.OperatorState)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.SendingError{Kind: domain.SendErrMalformedResponse, Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "dataitem") {
			continue
		}

		var item responseItem
		if err := decoder.DecodeElement(&item, &start); err != nil {
			return nil, &domain.SendingError{Kind: domain.SendErrMalformedResponse, Err: err}
		}

		id, err := decodeUniq(prefix, strings.TrimSpace(item.SmsID))
		if err != nil {
			return nil, &domain.SendingError{Kind: domain.SendErrMalformedResponse, Err: err}
		}

		code, err := strconv.Atoi(strings.TrimSpace(item.Status))
		if err != nil {
			return nil, &domain.SendingError{
				Kind: domain.SendErrMalformedResponse,
				Err:  fmt.Errorf("status %q for identifier %d is not numeric: %w", item.Status, id, err),
			}
		}

		parsed[id] = domain.OperatorState(code)
	}

	return parsed, nil
}
