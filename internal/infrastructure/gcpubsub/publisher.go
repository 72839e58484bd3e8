// Package gcpubsub 将视频生命周期事件发布到 Google Cloud Pub/Sub。
package gcpubsub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
	"github.com/bionicotaku/lingo-services-videos/internal/models/events"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher 以 JSON 消息体 + attributes 的形式发布领域事件。
type Publisher struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	timeout time.Duration
	log     *log.Helper
}

// NewPublisher 创建 Pub/Sub 客户端与 topic 句柄。
// 配置 emulator_endpoint 时使用明文 gRPC 且跳过认证。
func NewPublisher(ctx context.Context, cfg *conf.Events, logger log.Logger) (*Publisher, func(), error) {
	if cfg == nil || cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, nil, errors.New("pubsub publisher: project_id and topic_id are required")
	}
	var opts []option.ClientOption
	if cfg.EmulatorEndpoint != "" {
		opts = append(opts,
			option.WithEndpoint(cfg.EmulatorEndpoint),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub publisher: new client: %w", err)
	}

	timeout := cfg.PublishTimeout.Std()
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	topic := client.Topic(cfg.TopicID)
	topic.EnableMessageOrdering = true
	p := &Publisher{
		client:  client,
		topic:   topic,
		timeout: timeout,
		log:     log.NewHelper(logger),
	}
	cleanup := func() {
		p.topic.Stop()
		if err := client.Close(); err != nil {
			p.log.Warnf("close pubsub client: %v", err)
		}
	}
	return p, cleanup, nil
}

// Publish 同步等待服务端确认。失败后恢复该排序键，后续事件可继续发布。
func (p *Publisher) Publish(ctx context.Context, evt *events.DomainEvent) error {
	msg, err := events.Encode(ctx, evt)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.topic.Publish(pubCtx, &pubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: msg.OrderingKey,
	})
	msgID, err := result.Get(pubCtx)
	if err != nil {
		p.topic.ResumePublish(msg.OrderingKey)
		return fmt.Errorf("publish %s: %w", evt.Kind, err)
	}
	p.log.WithContext(ctx).Debugf("published event: type=%s aggregate_id=%d message_id=%s", evt.Kind, evt.AggregateID, msgID)
	return nil
}
