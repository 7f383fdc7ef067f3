package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const providerArk = "Ark"

// ArkConfig configures the Volcengine Ark chat model.
type ArkConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

// ArkClient is a Completer backed by an eino chat model.
type ArkClient struct {
	chatModel model.ChatModel
}

// NewArkClient creates the Ark chat model.
func NewArkClient(ctx context.Context, cfg ArkConfig) (*ArkClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("Ark API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("Ark model is required")
	}

	// The SDK retries 5xx and 429 twice by default; failures surface at once.
	retries := 0
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Region:     cfg.Region,
		RetryTimes: &retries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	return &ArkClient{chatModel: chatModel}, nil
}

func (c *ArkClient) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return "", asProviderError(providerArk, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", asProviderError(providerArk, ErrEmptyCompletion)
	}
	return msg.Content, nil
}
