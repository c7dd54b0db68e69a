//go:build pact

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	pacttest "github.com/rpggio/taskdesk/test/pact"
)

func TestTaskAPIContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", `application\/json(?:;\s?charset=utf-8)?`)
	bearer := matchers.S("Bearer " + pacttest.Token)
	ref := matchers.Map{
		"_id":  matchers.Like("u-1"),
		"name": matchers.Like("Pat PM"),
	}
	taskBody := matchers.Map{
		"_id":        matchers.Like(pacttest.ExistingTaskID),
		"title":      matchers.Like("Design review"),
		"status":     matchers.Term(string(task.StatusInProgress), "Pending|In Progress|Completed|Cancelled"),
		"priority":   matchers.Term("High", "Low|Medium|High"),
		"project":    ref,
		"assignedTo": ref,
		"createdAt":  matchers.Like("2025-01-02T03:04:05Z"),
	}

	pact.AddInteraction().
		Given(pacttest.StateUserExists).
		UponReceiving("a login request").
		WithRequest("POST", "/auth/login", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"email":    matchers.S(pacttest.Email),
				"password": matchers.S(pacttest.Password),
			})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"token": matchers.Like(pacttest.Token),
				"user": matchers.Map{
					"_id":   matchers.Like("u-1"),
					"name":  matchers.Like("Pat PM"),
					"email": matchers.Like(pacttest.Email),
					"role":  matchers.Term(string(user.RoleProjectManager), "Admin|ProjectManager|TeamMember"),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateProjectsBase).
		UponReceiving("a request to list projects").
		WithRequest("GET", "/projects", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.ArrayMinLike(matchers.Map{
				"_id":            matchers.Like("p-1"),
				"name":           matchers.Like("Apollo"),
				"status":         matchers.Term("Active", "Active|Completed"),
				"projectManager": ref,
				"teamMembers":    matchers.ArrayMinLike(ref, 1),
				"createdAt":      matchers.Like("2025-01-02T03:04:05Z"),
			}, 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateTaskExists).
		UponReceiving("a request to move a task to another status").
		WithRequest("PUT", "/tasks/"+pacttest.ExistingTaskID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"status": matchers.S(string(task.StatusInProgress))})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(taskBody)
		})

	pact.AddInteraction().
		Given(pacttest.StateTaskMissing).
		UponReceiving("a request for a missing task").
		WithRequest("GET", "/tasks/"+pacttest.MissingTaskID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{"message": matchers.S("Task not found")})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		client, err := api.New(fmt.Sprintf("http://%s:%d", host, config.Port))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		grant, err := client.Auth.Login(ctx, pacttest.Email, pacttest.Password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if grant.Token != pacttest.Token || grant.Identity.Role != user.RoleProjectManager {
			return fmt.Errorf("unexpected grant %+v", grant)
		}

		projects, err := client.Projects.List(ctx, grant.Token)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if len(projects) == 0 || projects[0].ProjectManager.ID == "" {
			return fmt.Errorf("unexpected projects %+v", projects)
		}

		updated, err := client.Tasks.Update(ctx, pacttest.ExistingTaskID, task.Payload{Status: task.StatusInProgress}, grant.Token)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if updated.Status != task.StatusInProgress {
			return fmt.Errorf("expected status %q, got %q", task.StatusInProgress, updated.Status)
		}

		_, err = client.Tasks.Get(ctx, pacttest.MissingTaskID, grant.Token)
		if !errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("expected not found, got %v", err)
		}
		if msg := api.Message(err); msg != "Task not found" {
			return fmt.Errorf("unexpected message %q", msg)
		}
		return nil
	})
	require.NoError(t, err)
}
