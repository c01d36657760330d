/*
Copyright 2025 The Kubestitch Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package log

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
)

type contextKey struct{}

var ContextKey = contextKey{}

type EventContext struct {
	Phase   constants.Phase
	Subtask string
}

// WithEventContext returns a context tagged with a phase and subtask, so log
// entries written further down the call stack carry both fields.
func WithEventContext(ctx context.Context, phase constants.Phase, subtask string) context.Context {
	return context.WithValue(ctx, ContextKey, EventContext{
		Phase:   phase,
		Subtask: subtask,
	})
}

// Entry takes a context.Context and constructs a logrus.Entry from it, adding
// fields for phase and subtask information
func Entry(ctx context.Context) *logrus.Entry {
	val := ctx.Value(ContextKey)
	if eventContext, ok := val.(EventContext); ok {
		return logrus.WithFields(logrus.Fields{
			"phase":   eventContext.Phase,
			"subtask": eventContext.Subtask,
		})
	}

	// Use Converge as the default phase, as it's the highest level phase we
	// can default to if one isn't specified.
	return logrus.WithFields(logrus.Fields{
		"phase":   constants.Converge,
		"subtask": constants.SubtaskIDNone,
	})
}
