package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	pfirestore "github.com/Zllawi/bassmaStore/internal/platform/firestore"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const addressCollectionPattern = "users/%s/addresses"

type addressDocument struct {
	Label              string    `firestore:"label,omitempty"`
	Name               string    `firestore:"name,omitempty"`
	Phone              string    `firestore:"phone,omitempty"`
	City               string    `firestore:"city,omitempty"`
	Region             string    `firestore:"region,omitempty"`
	Address            string    `firestore:"address,omitempty"`
	AddressDescription string    `firestore:"addressDescription,omitempty"`
	IsDefault          bool      `firestore:"isDefault"`
	CreatedAt          time.Time `firestore:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt"`
}

// AddressRepository persists address book entries under each user document.
type AddressRepository struct {
	provider *pfirestore.Provider
}

// NewAddressRepository constructs a Firestore-backed address repository.
func NewAddressRepository(provider *pfirestore.Provider) (*AddressRepository, error) {
	if provider == nil {
		return nil, errors.New("address repository requires firestore provider")
	}
	return &AddressRepository{provider: provider}, nil
}

// List returns all addresses for the user, most recently updated first.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var results []domain.Address
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("addresses.list", err)
		}
		addr, err := decodeAddressDocument(snap)
		if err != nil {
			return nil, err
		}
		results = append(results, addr)
	}
	return results, nil
}

// Get fetches a single address by ID.
func (r *AddressRepository) Get(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.get", err)
	}
	return decodeAddressDocument(snap)
}

// Insert stores a new address. When the new entry is flagged default, or the
// user has no addresses yet, it becomes the default and any previous default
// is cleared in the same transaction.
func (r *AddressRepository) Insert(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}

	now := time.Now().UTC()
	doc := addressDocumentFrom(addr)
	doc.CreatedAt = now
	doc.UpdatedAt = now
	ref := coll.NewDoc()

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		hasAny, err := hasAnyAddress(tx, coll)
		if err != nil {
			return err
		}
		if !hasAny {
			doc.IsDefault = true
		}
		if doc.IsDefault {
			if err := clearDefaultAddress(tx, coll, ref.ID); err != nil {
				return err
			}
		}
		return tx.Create(ref, doc)
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.insert", err)
	}
	return doc.toDomain(ref.ID), nil
}

// Update overwrites an existing address. Promoting an address to default
// demotes the previous one atomically.
func (r *AddressRepository) Update(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addr.ID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := coll.Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing addressDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
		}

		doc := addressDocumentFrom(addr)
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = time.Now().UTC()

		if doc.IsDefault && !existing.IsDefault {
			if err := clearDefaultAddress(tx, coll, id); err != nil {
				return err
			}
		}
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		saved = doc.toDomain(id)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.update", err)
	}
	return saved, nil
}

// Delete removes the address document.
func (r *AddressRepository) Delete(ctx context.Context, userID string, addressID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return errors.New("address repository: address id is required")
	}
	if _, err := coll.Doc(id).Delete(ctx); err != nil {
		return pfirestore.WrapError("addresses.delete", err)
	}
	return nil
}

// SetDefault marks the address as the user's default, clearing the flag on
// every other address in the same transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := coll.Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc addressDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
		}

		if err := clearDefaultAddress(tx, coll, id); err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.IsDefault = true
		doc.UpdatedAt = now
		if err := tx.Update(ref, []firestore.Update{
			{Path: "isDefault", Value: true},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		saved = doc.toDomain(id)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.setDefault", err)
	}
	return saved, nil
}

// FindDefault returns the user's default address when one exists.
func (r *AddressRepository) FindDefault(ctx context.Context, userID string) (domain.Address, bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, false, err
	}

	iter := coll.Where("isDefault", "==", true).Limit(1).Documents(ctx)
	defer iter.Stop()
	snaps, err := iter.GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Address{}, false, nil
		}
		return domain.Address{}, false, pfirestore.WrapError("addresses.findDefault", err)
	}
	if len(snaps) == 0 {
		return domain.Address{}, false, nil
	}
	addr, err := decodeAddressDocument(snaps[0])
	if err != nil {
		return domain.Address{}, false, err
	}
	return addr, true, nil
}

func (r *AddressRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("address repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("address repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(addressCollectionPattern, uid)), nil
}

func hasAnyAddress(tx *firestore.Transaction, coll *firestore.CollectionRef) (bool, error) {
	snaps, err := tx.Documents(coll.Limit(1)).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return len(snaps) > 0, nil
}

func clearDefaultAddress(tx *firestore.Transaction, coll *firestore.CollectionRef, currentID string) error {
	query := coll.Where("isDefault", "==", true).Limit(10)
	snaps, err := tx.Documents(query).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return err
	}
	for _, snap := range snaps {
		if snap.Ref.ID == currentID {
			continue
		}
		if err := tx.Update(snap.Ref, []firestore.Update{{Path: "isDefault", Value: false}}); err != nil {
			return err
		}
	}
	return nil
}

func decodeAddressDocument(snapshot *firestore.DocumentSnapshot) (domain.Address, error) {
	var doc addressDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Address{}, fmt.Errorf("decode address %s: %w", snapshot.Ref.ID, err)
	}
	return doc.toDomain(snapshot.Ref.ID), nil
}

func addressDocumentFrom(addr domain.Address) addressDocument {
	return addressDocument{
		Label:              strings.TrimSpace(addr.Label),
		Name:               strings.TrimSpace(addr.Name),
		Phone:              strings.TrimSpace(addr.Phone),
		City:               strings.TrimSpace(addr.City),
		Region:             strings.TrimSpace(addr.Region),
		Address:            strings.TrimSpace(addr.Address),
		AddressDescription: strings.TrimSpace(addr.AddressDescription),
		IsDefault:          addr.IsDefault,
		CreatedAt:          addr.CreatedAt,
		UpdatedAt:          addr.UpdatedAt,
	}
}

func (d addressDocument) toDomain(id string) domain.Address {
	return domain.Address{
		ID:                 id,
		Label:              d.Label,
		Name:               d.Name,
		Phone:              d.Phone,
		City:               d.City,
		Region:             d.Region,
		Address:            d.Address,
		AddressDescription: d.AddressDescription,
		IsDefault:          d.IsDefault,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

var _ repositories.AddressRepository = (*AddressRepository)(nil)
