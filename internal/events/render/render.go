// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package render turns GitHub event payloads into chat messages. The same
// renderers serve webhook payloads and polling feed entries; feed entries
// carry less detail, so some renderers degrade gracefully.
package render

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v63/github"

	"github.com/towns-protocol/github-bot/internal/events"
)

// maxCommitLines caps the commit list in a push message.
const maxCommitLines = 5

// WebhookEvent renders a parsed webhook payload into a normalized event.
// The second return is false when the payload is a kind or action the bot
// does not deliver.
func WebhookEvent(payload any) (events.Event, bool) {
	switch p := payload.(type) {
	case *github.PushEvent:
		return push(p.GetRepo().GetFullName(), p.GetRepo().GetDefaultBranch(), p)
	case *github.IssuesEvent:
		return issues(p.GetRepo().GetFullName(), p.GetAction(), p.GetSender().GetLogin(), p.GetIssue())
	case *github.PullRequestEvent:
		return pullRequest(p.GetRepo().GetFullName(), p.GetAction(), p.GetSender().GetLogin(), p.GetPullRequest())
	case *github.ReleaseEvent:
		return release(p.GetRepo().GetFullName(), p.GetAction(), p.GetRelease())
	case *github.WorkflowRunEvent:
		return workflowRun(p.GetRepo().GetFullName(), p.GetWorkflowRun())
	case *github.IssueCommentEvent:
		return issueComment(p.GetRepo().GetFullName(), p.GetAction(), p.GetSender().GetLogin(), p.GetIssue(), p.GetComment())
	case *github.PullRequestReviewEvent:
		return review(p.GetRepo().GetFullName(), p.GetAction(), p.GetReview(), p.GetPullRequest())
	case *github.PullRequestReviewCommentEvent:
		return reviewComment(p.GetRepo().GetFullName(), p.GetAction(), p.GetSender().GetLogin(), p.GetPullRequest())
	case *github.CreateEvent:
		return createRef(p.GetRepo().GetFullName(), p.GetSender().GetLogin(), p.GetRefType(), p.GetRef())
	case *github.DeleteEvent:
		return deleteRef(p.GetRepo().GetFullName(), p.GetSender().GetLogin(), p.GetRefType(), p.GetRef())
	case *github.WatchEvent:
		return watch(p.GetRepo().GetFullName(), p.GetSender().GetLogin())
	case *github.ForkEvent:
		return fork(p.GetRepo().GetFullName(), p.GetSender().GetLogin(), p.GetForkee())
	default:
		return events.Event{}, false
	}
}

// FeedEvent renders an entry from the repository events feed. prefetched
// maps PR numbers to full PR details fetched ahead of rendering; missing
// entries degrade the message rather than dropping it.
func FeedEvent(e *github.Event, prefetched map[int]*github.PullRequest) (events.Event, bool) {
	repo := e.GetRepo().GetName()
	actor := e.GetActor().GetLogin()

	payload, err := e.ParsePayload()
	if err != nil {
		return events.Event{}, false
	}

	switch p := payload.(type) {
	case *github.PushEvent:
		return push(repo, "", p)
	case *github.IssuesEvent:
		return issues(repo, p.GetAction(), actor, p.GetIssue())
	case *github.PullRequestEvent:
		pr := p.GetPullRequest()
		if full, ok := prefetched[pr.GetNumber()]; ok {
			pr = full
		}
		return pullRequest(repo, p.GetAction(), actor, pr)
	case *github.ReleaseEvent:
		return release(repo, p.GetAction(), p.GetRelease())
	case *github.WorkflowRunEvent:
		return workflowRun(repo, p.GetWorkflowRun())
	case *github.IssueCommentEvent:
		return issueComment(repo, p.GetAction(), actor, p.GetIssue(), p.GetComment())
	case *github.PullRequestReviewEvent:
		return review(repo, p.GetAction(), p.GetReview(), p.GetPullRequest())
	case *github.PullRequestReviewCommentEvent:
		return reviewComment(repo, p.GetAction(), actor, p.GetPullRequest())
	case *github.CreateEvent:
		return createRef(repo, actor, p.GetRefType(), p.GetRef())
	case *github.DeleteEvent:
		return deleteRef(repo, actor, p.GetRefType(), p.GetRef())
	case *github.WatchEvent:
		return watch(repo, actor)
	case *github.ForkEvent:
		return fork(repo, actor, p.GetForkee())
	default:
		return events.Event{}, false
	}
}

func push(repo, defaultBranch string, p *github.PushEvent) (events.Event, bool) {
	branch := branchFromRef(p.GetRef())
	if branch == "" {
		// Tag pushes are announced through create events instead.
		return events.Event{}, false
	}

	pusher := p.GetPusher().GetName()
	if pusher == "" {
		pusher = p.GetSender().GetLogin()
	}
	commits := p.Commits

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 **%s** pushed %d commit%s to `%s` in %s",
		pusher, len(commits), plural(len(commits)), branch, repo)
	for i, c := range commits {
		if i == maxCommitLines {
			fmt.Fprintf(&sb, "\n…and %d more", len(commits)-maxCommitLines)
			break
		}
		fmt.Fprintf(&sb, "\n• `%s` %s", shortSHA(commitSHA(c)), firstLine(c.GetMessage()))
	}

	return events.Event{
		RepoFullName:  repo,
		Kind:          "push",
		ShortName:     "commits",
		Branch:        branch,
		DefaultBranch: defaultBranch,
		Message:       sb.String(),
	}, len(commits) > 0
}

func issues(repo, action, actor string, issue *github.Issue) (events.Event, bool) {
	switch action {
	case "opened", "closed", "reopened":
	default:
		return events.Event{}, false
	}
	msg := fmt.Sprintf("🐛 **%s** %s issue #%d in %s: %s",
		actor, action, issue.GetNumber(), repo, issue.GetTitle())
	if url := issue.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "issues",
		ShortName:    "issues",
		Message:      msg,
	}, true
}

func pullRequest(repo, action, actor string, pr *github.PullRequest) (events.Event, bool) {
	verb := ""
	switch action {
	case "opened", "reopened":
		verb = action
	case "ready_for_review":
		verb = "marked ready for review"
	case "closed":
		if pr.GetMerged() {
			verb = "merged"
		} else {
			verb = "closed"
		}
	default:
		return events.Event{}, false
	}
	msg := fmt.Sprintf("🔀 **%s** %s pull request #%d in %s: %s",
		actor, verb, pr.GetNumber(), repo, pr.GetTitle())
	if url := pr.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "pull_request",
		ShortName:    "pr",
		Message:      msg,
	}, true
}

func release(repo, action string, rel *github.RepositoryRelease) (events.Event, bool) {
	if action != "published" {
		return events.Event{}, false
	}
	name := rel.GetName()
	if name == "" {
		name = rel.GetTagName()
	}
	msg := fmt.Sprintf("🚀 Release **%s** published in %s", name, repo)
	if url := rel.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "release",
		ShortName:    "releases",
		Message:      msg,
	}, true
}

func workflowRun(repo string, run *github.WorkflowRun) (events.Event, bool) {
	if run.GetStatus() != "completed" {
		return events.Event{}, false
	}
	icon := "❌"
	if run.GetConclusion() == "success" {
		icon = "✅"
	}
	msg := fmt.Sprintf("%s Workflow **%s** %s on `%s` in %s",
		icon, run.GetName(), run.GetConclusion(), run.GetHeadBranch(), repo)
	if url := run.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "workflow_run",
		ShortName:    "ci",
		Branch:       run.GetHeadBranch(),
		Message:      msg,
	}, true
}

func issueComment(repo, action, actor string, issue *github.Issue, comment *github.IssueComment) (events.Event, bool) {
	if action != "created" {
		return events.Event{}, false
	}
	msg := fmt.Sprintf("💬 **%s** commented on #%d in %s: %s",
		actor, issue.GetNumber(), repo, issue.GetTitle())
	if url := comment.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "issue_comment",
		ShortName:    "comments",
		Message:      msg,
	}, true
}

func review(repo, action string, rev *github.PullRequestReview, pr *github.PullRequest) (events.Event, bool) {
	if action != "submitted" {
		return events.Event{}, false
	}
	verb := ""
	switch rev.GetState() {
	case "approved":
		verb = "approved"
	case "changes_requested":
		verb = "requested changes on"
	case "commented":
		verb = "reviewed"
	default:
		return events.Event{}, false
	}
	msg := fmt.Sprintf("👀 **%s** %s pull request #%d in %s",
		rev.GetUser().GetLogin(), verb, pr.GetNumber(), repo)
	if url := rev.GetHTMLURL(); url != "" {
		msg += "\n" + url
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "pull_request_review",
		ShortName:    "reviews",
		Message:      msg,
	}, true
}

func reviewComment(repo, action, actor string, pr *github.PullRequest) (events.Event, bool) {
	if action != "created" {
		return events.Event{}, false
	}
	msg := fmt.Sprintf("💬 **%s** commented on a review of pull request #%d in %s",
		actor, pr.GetNumber(), repo)
	return events.Event{
		RepoFullName: repo,
		Kind:         "pull_request_review_comment",
		ShortName:    "review_comments",
		Message:      msg,
	}, true
}

func createRef(repo, actor, refType, ref string) (events.Event, bool) {
	switch refType {
	case "branch", "tag":
	default:
		return events.Event{}, false
	}
	evt := events.Event{
		RepoFullName: repo,
		Kind:         "create",
		ShortName:    "branches",
		Message:      fmt.Sprintf("🌱 **%s** created %s `%s` in %s", actor, refType, ref, repo),
	}
	if refType == "branch" {
		evt.Branch = ref
	}
	return evt, true
}

func deleteRef(repo, actor, refType, ref string) (events.Event, bool) {
	switch refType {
	case "branch", "tag":
	default:
		return events.Event{}, false
	}
	evt := events.Event{
		RepoFullName: repo,
		Kind:         "delete",
		ShortName:    "branches",
		Message:      fmt.Sprintf("🗑️ **%s** deleted %s `%s` in %s", actor, refType, ref, repo),
	}
	if refType == "branch" {
		evt.Branch = ref
	}
	return evt, true
}

func watch(repo, actor string) (events.Event, bool) {
	return events.Event{
		RepoFullName: repo,
		Kind:         "watch",
		ShortName:    "stars",
		Message:      fmt.Sprintf("⭐ **%s** starred %s", actor, repo),
	}, true
}

func fork(repo, actor string, forkee *github.Repository) (events.Event, bool) {
	msg := fmt.Sprintf("🍴 **%s** forked %s", actor, repo)
	if full := forkee.GetFullName(); full != "" {
		msg += " to " + full
	}
	return events.Event{
		RepoFullName: repo,
		Kind:         "fork",
		ShortName:    "forks",
		Message:      msg,
	}, true
}

// branchFromRef extracts the branch name from a push ref, returning ""
// for tag refs.
func branchFromRef(ref string) string {
	if branch, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
		return branch
	}
	return ""
}

// commitSHA works around webhook payloads populating ID while the events
// feed populates SHA.
func commitSHA(c *github.HeadCommit) string {
	if id := c.GetID(); id != "" {
		return id
	}
	return c.GetSHA()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
