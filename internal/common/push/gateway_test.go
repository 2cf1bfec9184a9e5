package push

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-tracking-services/internal/common/logger"
)

// ==========================
// Mock SNS
// ==========================

type mockSNS struct {
	PublishFunc        func(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
	CreateEndpointFunc func(ctx context.Context, input *sns.CreatePlatformEndpointInput) (*sns.CreatePlatformEndpointOutput, error)

	published []*sns.PublishInput
	created   []*sns.CreatePlatformEndpointInput
}

func (m *mockSNS) Publish(ctx context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.published = append(m.published, input)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, input)
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func (m *mockSNS) CreatePlatformEndpoint(ctx context.Context, input *sns.CreatePlatformEndpointInput, _ ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error) {
	m.created = append(m.created, input)
	if m.CreateEndpointFunc != nil {
		return m.CreateEndpointFunc(ctx, input)
	}
	return &sns.CreatePlatformEndpointOutput{EndpointArn: aws.String("arn:aws:sns:us-east-1:123:endpoint/GCM/bus/abc")}, nil
}

const platformARN = "arn:aws:sns:us-east-1:123:app/GCM/bus"

// ==========================
// Send
// ==========================

func TestSNSGateway_Send_CreatesEndpointForRawToken(t *testing.T) {
	api := &mockSNS{}
	g := NewSNSGateway(api, platformARN, "gcm", logger.NewTestLogger(t))

	ok := g.Send(context.Background(), "device-token-1", "Bus Alert", "Hello", map[string]string{"eta": "7"})

	require.True(t, ok)
	require.Len(t, api.created, 1)
	assert.Equal(t, "device-token-1", aws.ToString(api.created[0].Token))
	assert.Equal(t, platformARN, aws.ToString(api.created[0].PlatformApplicationArn))

	require.Len(t, api.published, 1)
	in := api.published[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123:endpoint/GCM/bus/abc", aws.ToString(in.TargetArn))
	assert.Equal(t, "json", aws.ToString(in.MessageStructure))
	assert.Nil(t, in.Subject)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &msg))
	assert.Equal(t, "Hello", msg["default"])

	var gcm struct {
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg["GCM"]), &gcm))
	assert.Equal(t, "Bus Alert", gcm.Notification["title"])
	assert.Equal(t, "7", gcm.Data["eta"])
}

func TestSNSGateway_Send_EndpointARNTokenSkipsRegistration(t *testing.T) {
	api := &mockSNS{}
	g := NewSNSGateway(api, platformARN, "GCM", logger.NewNoOpLogger())

	ok := g.Send(context.Background(), "arn:aws:sns:us-east-1:123:endpoint/GCM/bus/xyz", "t", "b", nil)

	assert.True(t, ok)
	assert.Empty(t, api.created)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:endpoint/GCM/bus/xyz", aws.ToString(api.published[0].TargetArn))
}

func TestSNSGateway_Send_TitleOnlyInPlatformPayload(t *testing.T) {
	api := &mockSNS{}
	g := NewSNSGateway(api, "", "APNS", logger.NewNoOpLogger())
	title := "Retard du bus: la ligne 12 arrivera avec environ quinze minutes de retard à l'arrêt École Saint-Exupéry"

	ok := g.Send(context.Background(), "arn:aws:sns:us-east-1:123:endpoint/APNS/bus/1", title, "b", nil)

	require.True(t, ok)
	require.Len(t, api.published, 1)
	assert.Nil(t, api.published[0].Subject)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(api.published[0].Message)), &msg))
	var apns struct {
		Aps struct {
			Alert map[string]string `json:"alert"`
		} `json:"aps"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg["APNS"]), &apns))
	assert.Equal(t, title, apns.Aps.Alert["title"])
}

func TestSNSGateway_Send_Failures(t *testing.T) {
	tests := []struct {
		name         string
		api          *mockSNS
		wantPublish  int
		wantEndpoint int
	}{
		{
			name: "endpoint registration fails",
			api: &mockSNS{CreateEndpointFunc: func(context.Context, *sns.CreatePlatformEndpointInput) (*sns.CreatePlatformEndpointOutput, error) {
				return nil, errors.New("InvalidParameter")
			}},
			wantPublish:  0,
			wantEndpoint: 1,
		},
		{
			name: "publish fails",
			api: &mockSNS{PublishFunc: func(context.Context, *sns.PublishInput) (*sns.PublishOutput, error) {
				return nil, errors.New("EndpointDisabled")
			}},
			wantPublish:  1,
			wantEndpoint: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSNSGateway(tt.api, platformARN, "GCM", logger.NewTestLogger(t))

			ok := g.Send(context.Background(), "raw-token", "t", "b", nil)

			assert.False(t, ok)
			assert.Len(t, tt.api.published, tt.wantPublish)
			assert.Len(t, tt.api.created, tt.wantEndpoint)
		})
	}
}

// ==========================
// BuildMessage
// ==========================

func TestBuildMessage_APNS(t *testing.T) {
	raw, err := BuildMessage("APNS", "Bus Arrival Update", "Soon", map[string]string{"route": "12", "aps": "ignored"})
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.Contains(t, msg, "APNS")
	assert.NotContains(t, msg, "GCM")

	var apns map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg["APNS"]), &apns))
	assert.Equal(t, "12", apns["route"])
	alert := apns["aps"].(map[string]interface{})["alert"].(map[string]interface{})
	assert.Equal(t, "Bus Arrival Update", alert["title"])
}

func TestBuildMessage_UnknownPlatformDefaultsToGCM(t *testing.T) {
	raw, err := BuildMessage("", "t", "b", nil)
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Contains(t, msg, "GCM")
	assert.JSONEq(t, `{"notification":{"title":"t","body":"b"},"data":{}}`, msg["GCM"])
}
