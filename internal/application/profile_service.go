package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/internal/domain/repository"
)

// ProfileService reads and mutates the Profile row keyed by the
// authenticated user. Repository errors propagate unchanged; a missing
// session is not an error for reads.
type ProfileService struct {
	Provider        provider.AuthProvider
	Repo            repository.ProfileRepository
	Logger          *logrus.Logger
	ES              *elasticsearch.Client
	ESProfilesIndex string
}

func NewProfileService(p provider.AuthProvider, repo repository.ProfileRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ProfileService {
	return &ProfileService{Provider: p, Repo: repo, Logger: logger, ES: es, ESProfilesIndex: esIndex}
}

// GetCurrentProfile resolves the current session and fetches its profile.
// No session means no profile: (nil, nil), not an error.
func (s *ProfileService) GetCurrentProfile(ctx context.Context) (*entity.Profile, error) {
	sess, err := s.Provider.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.User == nil {
		return nil, nil
	}
	return s.GetProfile(ctx, sess.User.ID)
}

// GetProfile fetches the profile row for an explicit user id. The HTTP
// layer resolves the id from the authenticated request, never from the
// ambient session. A missing row yields (nil, nil).
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		s.Logger.WithError(err).WithField("user_id", userID).Error("fetch profile failed")
		return nil, err
	}
	return p, nil
}

// UpdateProfile applies a partial patch to the current user's profile and
// returns the updated row.
func (s *ProfileService) UpdateProfile(ctx context.Context, patch entity.ProfilePatch) (*entity.Profile, error) {
	sess, err := s.Provider.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.User == nil {
		return nil, ErrNoAuthenticatedUser
	}
	return s.UpdateProfileFor(ctx, sess.User.ID, patch)
}

// UpdateProfileFor applies a partial patch to the given user's profile row
// and returns the updated row.
func (s *ProfileService) UpdateProfileFor(ctx context.Context, userID string, patch entity.ProfilePatch) (*entity.Profile, error) {
	p, err := s.Repo.Patch(ctx, userID, patch)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("update profile failed")
		return nil, err
	}
	s.indexProfile(ctx, p)
	return p, nil
}

// GetProfileByID fetches any member's profile through the remote lookup
// function. A missing row yields (nil, nil).
func (s *ProfileService) GetProfileByID(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.Repo.Lookup(ctx, userID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("profile lookup failed")
		return nil, err
	}
	return p, nil
}

// SearchProfiles runs a member-directory search over names and email.
// Without a configured search backend it returns an empty result.
func (s *ProfileService) SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESProfilesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"first_name^2", "last_name^2", "email", "ministry_roles"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESProfilesIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *ProfileService) indexProfile(ctx context.Context, p *entity.Profile) {
	if s.ES == nil || s.ESProfilesIndex == "" {
		return
	}
	doc := map[string]any{
		"id":             p.ID,
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"email":          p.Email,
		"avatar_url":     p.AvatarURL,
		"ministry_roles": p.MinistryRoles,
		"updated_at":     p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESProfilesIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("profile_id", p.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("profile_id", p.ID).Warn("es index response error")
	}
}
