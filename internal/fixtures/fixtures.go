// Package fixtures holds the canned backend payloads the Margea scenarios
// serve through the interception registry.
package fixtures

import (
	"fmt"
	"time"
)

// Mocked endpoint globs.
const (
	GraphQLPattern     = "**/graphql"
	TokenPattern       = "**/api/auth/token"
	PermissionsPattern = "**/api/auth/permissions"
)

// MockToken is the bearer token handed to the app by the token mock.
const MockToken = "mock-token"

// Actor is a GitHub user reference.
type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// Owner is a repository owner reference.
type Owner struct {
	Login string `json:"login"`
}

// Repository is the repository a pull request belongs to.
type Repository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NameWithOwner string `json:"nameWithOwner"`
	Owner         Owner  `json:"owner"`
}

// LabelConnection is the GraphQL labels connection.
type LabelConnection struct {
	Nodes []Label `json:"nodes"`
}

// Label is a pull request label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PullRequest mirrors the fields the dashboard's search query selects.
type PullRequest struct {
	ID          string          `json:"id"`
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	MergedAt    *time.Time      `json:"mergedAt"`
	ClosedAt    *time.Time      `json:"closedAt"`
	URL         string          `json:"url"`
	BaseRefName string          `json:"baseRefName"`
	HeadRefName string          `json:"headRefName"`
	Author      Actor           `json:"author"`
	Labels      LabelConnection `json:"labels"`
	Repository  Repository      `json:"repository"`
}

// SearchConnection is the GraphQL search result.
type SearchConnection struct {
	Nodes []PullRequest `json:"nodes"`
}

// ListingData is the data object of the listing response.
type ListingData struct {
	Viewer Actor            `json:"viewer"`
	Search SearchConnection `json:"search"`
}

// ListingResponse is the GraphQL envelope for the listing query.
type ListingResponse struct {
	Data ListingData `json:"data"`
}

// MergeResult is the mergePullRequest mutation payload.
type MergeResult struct {
	Merged   bool      `json:"merged"`
	MergedAt time.Time `json:"mergedAt"`
}

// MergeData is the data object of the mutation response.
type MergeData struct {
	MergePullRequest MergeResult `json:"mergePullRequest"`
}

// MergeResponse is the GraphQL envelope for the merge mutation.
type MergeResponse struct {
	Data MergeData `json:"data"`
}

// TokenResponse is the /api/auth/token payload.
type TokenResponse struct {
	Token string `json:"token"`
}

// PermissionsResponse is the /api/auth/permissions payload.
type PermissionsResponse struct {
	Mode string `json:"mode"`
}

var fixtureRepo = Repository{
	ID:            "REPO_1",
	Name:          "repo",
	NameWithOwner: "owner/repo",
	Owner:         Owner{Login: "owner"},
}

// RepoGroup is the text the dashboard shows for the mocked repository group.
func RepoGroup() string {
	return fixtureRepo.NameWithOwner
}

func day(n int) time.Time {
	return time.Date(2023, time.January, n, 0, 0, 0, 0, time.UTC)
}

func pullRequest(n int) PullRequest {
	return PullRequest{
		ID:          fmt.Sprintf("PR_%d", n),
		Number:      n,
		Title:       fmt.Sprintf("Test PR %d", n),
		Body:        fmt.Sprintf("Body %d", n),
		State:       "OPEN",
		CreatedAt:   day(n),
		UpdatedAt:   day(n),
		URL:         fmt.Sprintf("http://github.com/%s/pull/%d", fixtureRepo.NameWithOwner, n),
		BaseRefName: "main",
		HeadRefName: fmt.Sprintf("feature-%d", n),
		Author: Actor{
			Login:     fmt.Sprintf("author%d", n),
			AvatarURL: fmt.Sprintf("https://avatars.githubusercontent.com/u/%d?v=4", n+1),
		},
		Labels:     LabelConnection{Nodes: []Label{}},
		Repository: fixtureRepo,
	}
}

// Listing returns the search response with two open pull requests in
// owner/repo.
func Listing() ListingResponse {
	return ListingResponse{
		Data: ListingData{
			Viewer: Actor{
				Login:     "testuser",
				AvatarURL: "https://avatars.githubusercontent.com/u/1?v=4",
			},
			Search: SearchConnection{
				Nodes: []PullRequest{pullRequest(1), pullRequest(2)},
			},
		},
	}
}

// MergeMutation returns a successful mergePullRequest response.
func MergeMutation() MergeResponse {
	return MergeResponse{
		Data: MergeData{
			MergePullRequest: MergeResult{Merged: true, MergedAt: day(1)},
		},
	}
}

// Token returns the token endpoint payload.
func Token() TokenResponse {
	return TokenResponse{Token: MockToken}
}

// WritePermissions returns the write-mode permissions payload.
func WritePermissions() PermissionsResponse {
	return PermissionsResponse{Mode: "write"}
}

// MergeButtonLabel is the bulk-action button text for n selected PRs.
func MergeButtonLabel(n int) string {
	return fmt.Sprintf("Mergear %d PRs", n)
}

// MergeOutcomeLabel is the toast text once every merge has finished.
func MergeOutcomeLabel(merged, failed int) string {
	return fmt.Sprintf("Concluído: %d sucesso, %d erro", merged, failed)
}

// Localized dashboard captions.
const (
	SelectAllLabel      = "Selecionar Todos"
	ConfirmMergeCaption = "Confirmar Mergear PRs"
	MergeProgressTitle  = "Mergear PRs - Progresso"
	ToastDetailsLabel   = "Detalhes"
	FiltersCaption      = "Filtros e Ações"
	AppTitle            = "Margea"
	SearchButtonLabel   = "Buscar"
	FaviconHref         = "/logo.svg"
)
