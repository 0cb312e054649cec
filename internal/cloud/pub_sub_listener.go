// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines a reusable Pub/Sub listener that feeds each received
// message into a chain-of-responsibility command. The library ingest
// pipeline attaches its persistence chain here: a GCS notification
// arrives, the chain indexes the artifact, and the message is acked only
// on success so failed messages redeliver.

package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
)

// PubSubListener binds a subscription to the command that processes its
// messages. Listeners outlive individual requests, so they live with the
// cloud clients rather than the HTTP layer.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for the given subscription ID.
// The command may be nil at construction and attached later with
// SetCommand, which is how startup wires listeners before the workflow
// chains exist.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (*PubSubListener, error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand attaches the processing command if none is set yet. An
// already-attached command is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Canceling
// ctx stops the receive loop. Each message runs through the attached
// command under its own trace span; the message is acked only when the
// chain finishes without errors, leaving failures to the subscription's
// retry policy.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.InfoContext(ctx, "starting pubsub listener", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for name, e := range chainCtx.GetErrors() {
					slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
				}
			}

			span.End()
		})
		if err != nil {
			slog.ErrorContext(ctx, "pubsub receive terminated", "subscription", m.subscription.String(), "error", err)
		}
	}()
}
