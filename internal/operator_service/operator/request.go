package operator

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

// RequestType selects which shape of operator request to build.
type RequestType int

const (
	// RequestTypeSend submits new messages for delivery.
	RequestTypeSend RequestType = iota
	// RequestTypeDeliveryQuery asks for the delivery status of previously
	// sent messages.
	RequestTypeDeliveryQuery
)

// discriminator is the request-type string the operator expects in the
// serviceRequestType element.
func (t RequestType) discriminator() string {
	if t == RequestTypeDeliveryQuery {
		return "SMS-Status"
	}
	return "SMS"
}

func (t RequestType) String() string { return t.discriminator() }

// Config is the static operator access configuration, read-only after
// initialization.
type Config struct {
	Username string
	Password string
	// UniqPrefix namespaces message identifiers on the wire; an identifier
	// 101 with prefix "X" travels as "X-101".
	UniqPrefix string
	URL        string
}

type serviceRequest struct {
	XMLName xml.Name      `xml:"serviceRequest"`
	Login   serviceLogin  `xml:"serviceLogin"`
	Type    string        `xml:"serviceRequestType"`
	Items   []requestItem `xml:"dataArray>dataitem"`
}

type serviceLogin struct {
	Username string `xml:"username"`
	Password string `xml:"password"`
}

type requestItem struct {
	SmsID  string `xml:"smsid"`
	Number string `xml:"number,omitempty"`
	Data   string `xml:"data,omitempty"`
}

// encodeUniq builds the on-wire identifier for a message.
func encodeUniq(prefix string, id int64) string {
	return prefix + "-" + strconv.FormatInt(id, 10)
}

// decodeUniq strips the prefix and its separator back off and parses the
// remainder as the original integer identifier.
func decodeUniq(prefix, uniq string) (int64, error) {
	rest, ok := strings.CutPrefix(uniq, prefix+"-")
	if !ok {
		return 0, fmt.Errorf("identifier %q does not carry prefix %q", uniq, prefix)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("identifier %q is not numeric after prefix strip: %w", uniq, err)
	}
	return id, nil
}

// buildRequest serializes a batch of messages into the operator's XML body.
// A send request carries recipient and text per message; a delivery-status
// query carries identifiers only.
func buildRequest(cfg Config, messages []*domain.OutboundMessage, requestType RequestType) ([]byte, error) {
	if len(messages) == 0 {
		return nil, &domain.SendingError{Kind: domain.SendErrEmptyBatch}
	}

	req := serviceRequest{
		Login: serviceLogin{Username: cfg.Username, Password: cfg.Password},
		Type:  requestType.discriminator(),
		Items: make([]requestItem, 0, len(messages)),
	}
	for _, msg := range messages {
		item := requestItem{SmsID: encodeUniq(cfg.UniqPrefix, msg.ID)}
		if requestType == RequestTypeSend {
			item.Number = msg.Recipient
			item.Data = msg.Content
		}
		req.Items = append(req.Items, item)
	}

	body, err := xml.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize operator request: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
