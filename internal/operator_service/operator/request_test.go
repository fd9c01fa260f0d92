package operator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsgate/smsoperator/internal/operator_service/domain"
)

var testConfig = Config{
	Username:   "testuser",
	Password:   "testpass",
	UniqPrefix: "X",
	URL:        "https://operator.example.com/webservice",
}

func TestBuildRequest_Send(t *testing.T) {
	messages := []*domain.OutboundMessage{
		{ID: 101, Recipient: "+420777111222", Content: "Hello"},
		{ID: 102, Recipient: "+420777333444", Content: "Ahoj & vítej"},
	}

	body, err := buildRequest(testConfig, messages, RequestTypeSend)
	require.NoError(t, err)

	xmlStr := string(body)
	assert.Contains(t, xmlStr, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, xmlStr, "<username>testuser</username>")
	assert.Contains(t, xmlStr, "<password>testpass</password>")
	assert.Contains(t, xmlStr, "<serviceRequestType>SMS</serviceRequestType>")
	assert.Contains(t, xmlStr, "<smsid>X-101</smsid>")
	assert.Contains(t, xmlStr, "<smsid>X-102</smsid>")
	assert.Contains(t, xmlStr, "<number>+420777111222</number>")
	assert.Contains(t, xmlStr, "<data>Hello</data>")
	// Message text must be XML-escaped.
	assert.Contains(t, xmlStr, "<data>Ahoj &amp; vítej</data>")
}

func TestBuildRequest_DeliveryQuery(t *testing.T) {
	messages := []*domain.OutboundMessage{
		{ID: 101, Recipient: "+420777111222", Content: "Hello"},
	}

	body, err := buildRequest(testConfig, messages, RequestTypeDeliveryQuery)
	require.NoError(t, err)

	xmlStr := string(body)
	assert.Contains(t, xmlStr, "<serviceRequestType>SMS-Status</serviceRequestType>")
	assert.Contains(t, xmlStr, "<smsid>X-101</smsid>")
	// A status query carries identifiers only.
	assert.NotContains(t, xmlStr, "<number>")
	assert.NotContains(t, xmlStr, "<data>")
}

func TestBuildRequest_EmptyBatch(t *testing.T) {
	_, err := buildRequest(testConfig, nil, RequestTypeSend)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &domain.SendingError{Kind: domain.SendErrEmptyBatch}))
}

func TestUniqEncoding_RoundTrip(t *testing.T) {
	for _, id := range []int64{1, 101, 999999999999} {
		for _, prefix := range []string{"X", "prod", "sms-gw"} {
			uniq := encodeUniq(prefix, id)
			assert.Equal(t, fmt.Sprintf("%s-%d", prefix, id), uniq)

			decoded, err := decodeUniq(prefix, uniq)
			require.NoError(t, err)
			assert.Equal(t, id, decoded)
		}
	}
}

func TestDecodeUniq_Invalid(t *testing.T) {
	_, err := decodeUniq("X", "Y-101")
	assert.Error(t, err)

	_, err = decodeUniq("X", "X-abc")
	assert.Error(t, err)

	_, err = decodeUniq("X", "101")
	assert.Error(t, err)
}

// An identifier starting with the same characters as the prefix must survive
// the strip. A character-set strip would eat leading digits here.
func TestDecodeUniq_PrefixOverlap(t *testing.T) {
	decoded, err := decodeUniq("1", "1-101")
	require.NoError(t, err)
	assert.Equal(t, int64(101), decoded)
}
