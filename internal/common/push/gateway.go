// internal/common/push/gateway.go
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/common/metrics"
)

// Gateway sends one push notification to a device token.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) bool
}

// SNSAPI is the subset of the SNS client the gateway uses.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	CreatePlatformEndpoint(ctx context.Context, input *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
}

type SNSGateway struct {
	api         SNSAPI
	platformARN string
	platform    string
	logger      logger.Logger
}

// NewSNSGateway builds a gateway publishing through SNS mobile push. When platformARN is
// empty, tokens must already be endpoint ARNs.
func NewSNSGateway(api SNSAPI, platformARN, platform string, log logger.Logger) *SNSGateway {
	if platform == "" {
		platform = "GCM"
	}
	return &SNSGateway{
		api:         api,
		platformARN: platformARN,
		platform:    strings.ToUpper(platform),
		logger:      log.WithFields(map[string]interface{}{"component": "push-gateway"}),
	}
}

// Send never returns provider errors; they are logged and counted.
func (g *SNSGateway) Send(ctx context.Context, token, title, body string, data map[string]string) bool {
	endpoint, err := g.resolveEndpoint(ctx, token)
	if err != nil {
		g.fail("endpoint", err)
		return false
	}

	message, err := BuildMessage(g.platform, title, body, data)
	if err != nil {
		g.fail("encode", err)
		return false
	}

	out, err := g.api.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpoint),
		Message:          aws.String(message),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		g.fail("publish", err)
		return false
	}

	metrics.PushRequests.WithLabelValues("success").Inc()
	g.logger.Debug("Push notification published", map[string]interface{}{
		"messageId": aws.ToString(out.MessageId),
	})
	return true
}

func (g *SNSGateway) resolveEndpoint(ctx context.Context, token string) (string, error) {
	if strings.HasPrefix(token, "arn:") || g.platformARN == "" {
		return token, nil
	}

	out, err := g.api.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(g.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", fmt.Errorf("create platform endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

func (g *SNSGateway) fail(stage string, err error) {
	metrics.PushRequests.WithLabelValues("failure").Inc()
	g.logger.Error("Push notification failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// BuildMessage renders the SNS JSON message for platform (GCM, APNS or APNS_SANDBOX).
// The default entry carries the plain body for any other subscriber.
func BuildMessage(platform, title, body string, data map[string]string) (string, error) {
	if data == nil {
		data = map[string]string{}
	}

	var payload map[string]interface{}
	switch platform {
	case "APNS", "APNS_SANDBOX":
		payload = map[string]interface{}{
			"aps": map[string]interface{}{
				"alert": map[string]string{"title": title, "body": body},
				"sound": "default",
			},
		}
		for k, v := range data {
			if k != "aps" {
				payload[k] = v
			}
		}
	default:
		platform = "GCM"
		payload = map[string]interface{}{
			"notification": map[string]string{"title": title, "body": body},
			"data":         data,
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	msg, err := json.Marshal(map[string]string{
		"default": body,
		platform:  string(encoded),
	})
	if err != nil {
		return "", err
	}
	return string(msg), nil
}
