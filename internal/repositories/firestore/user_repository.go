package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	pfirestore "github.com/Zllawi/bassmaStore/internal/platform/firestore"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const usersCollection = "users"

type userDocument struct {
	Name               string    `firestore:"name"`
	Email              string    `firestore:"email"`
	PasswordHash       string    `firestore:"passwordHash"`
	Role               string    `firestore:"role"`
	Phone              string    `firestore:"phone,omitempty"`
	City               string    `firestore:"city,omitempty"`
	Region             string    `firestore:"region,omitempty"`
	AddressDescription string    `firestore:"addressDescription,omitempty"`
	TokenVersion       int64     `firestore:"tokenVersion"`
	CreatedAt          time.Time `firestore:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt"`
}

// UserRepository persists user accounts in Firestore.
type UserRepository struct {
	provider *pfirestore.Provider
	users    *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil)
	return &UserRepository{provider: provider, users: base}, nil
}

// Insert creates the user, enforcing email uniqueness inside a transaction.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	if r == nil || r.provider == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return domain.User{}, errors.New("users: email is required")
	}

	coll, err := r.users.CollectionRef(ctx)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	doc := userDocumentFrom(user)
	doc.Email = email
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Role == "" {
		doc.Role = string(domain.RoleUser)
	}

	ref := coll.NewDoc()
	if strings.TrimSpace(user.ID) != "" {
		ref = coll.Doc(strings.TrimSpace(user.ID))
	}

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := coll.Where("email", "==", email).Limit(1)
		snaps, err := tx.Documents(query).GetAll()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if len(snaps) > 0 {
			return repositories.ErrEmailTaken
		}
		return tx.Create(ref, doc)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return domain.User{}, repositories.ErrEmailTaken
		}
		return domain.User{}, pfirestore.WrapError("users.insert", err)
	}

	return doc.toDomain(ref.ID), nil
}

// FindByID fetches a user by document ID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	doc, err := r.users.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.User{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByEmail looks a user up by normalised email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return domain.User{}, false, nil
	}
	docs, err := r.users.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("email", "==", normalized).Limit(1)
	})
	if err != nil {
		return domain.User{}, false, err
	}
	if len(docs) == 0 {
		return domain.User{}, false, nil
	}
	return docs[0].Data.toDomain(docs[0].ID), true, nil
}

// Update overwrites the user's mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	id := strings.TrimSpace(user.ID)
	if id == "" {
		return domain.User{}, errors.New("users: user id is required")
	}

	existing, err := r.users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	doc := existing.Data
	doc.Name = strings.TrimSpace(user.Name)
	doc.Phone = strings.TrimSpace(user.Phone)
	doc.City = strings.TrimSpace(user.City)
	doc.Region = strings.TrimSpace(user.Region)
	doc.AddressDescription = strings.TrimSpace(user.AddressDescription)
	if user.Role != "" {
		doc.Role = string(user.Role)
	}
	if strings.TrimSpace(user.PasswordHash) != "" {
		doc.PasswordHash = user.PasswordHash
	}
	doc.UpdatedAt = time.Now().UTC()

	if _, err := r.users.Set(ctx, id, doc); err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(id), nil
}

// BumpTokenVersion increments the user's token version, invalidating every
// previously minted refresh token.
func (r *UserRepository) BumpTokenVersion(ctx context.Context, userID string) (int64, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("user repository not initialised")
	}
	id := strings.TrimSpace(userID)
	if id == "" {
		return 0, errors.New("users: user id is required")
	}

	var next int64
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.users.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc userDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore users decode %s: %w", id, err)
		}
		doc.TokenVersion++
		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		next = doc.TokenVersion
		return nil
	})
	if err != nil {
		return 0, pfirestore.WrapError("users.bumpTokenVersion", err)
	}
	return next, nil
}

// List returns users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	docs, err := r.users.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.Data.toDomain(doc.ID))
	}
	return users, nil
}

// Delete removes the user document. Address subcollection documents are left
// behind; Firestore does not cascade deletes.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	return r.users.Delete(ctx, strings.TrimSpace(userID))
}

func userDocumentFrom(user domain.User) userDocument {
	return userDocument{
		Name:               strings.TrimSpace(user.Name),
		Email:              normalizeEmail(user.Email),
		PasswordHash:       user.PasswordHash,
		Role:               string(user.Role),
		Phone:              strings.TrimSpace(user.Phone),
		City:               strings.TrimSpace(user.City),
		Region:             strings.TrimSpace(user.Region),
		AddressDescription: strings.TrimSpace(user.AddressDescription),
		TokenVersion:       user.TokenVersion,
	}
}

func (d userDocument) toDomain(id string) domain.User {
	return domain.User{
		ID:                 id,
		Name:               d.Name,
		Email:              d.Email,
		PasswordHash:       d.PasswordHash,
		Role:               domain.UserRole(d.Role),
		Phone:              d.Phone,
		City:               d.City,
		Region:             d.Region,
		AddressDescription: d.AddressDescription,
		TokenVersion:       d.TokenVersion,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ repositories.UserRepository = (*UserRepository)(nil)
