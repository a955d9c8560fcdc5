package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/ironlog/internal/telemetry/tracing"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const favoritesCollection = "favorites"

type favoriteDoc struct {
	UserID     string    `firestore:"userId"`
	ExerciseID string    `firestore:"exerciseId"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

type FirestoreRepo struct {
	client *firestore.Client
}

func NewFirestoreRepo(client *firestore.Client) *FirestoreRepo {
	return &FirestoreRepo{
		client: client,
	}
}

// docID is deterministic so that toggling is a transaction on a single
// document instead of a query.
func docID(ownerID, exerciseID string) string {
	return ownerID + "::" + exerciseID
}

func (r *FirestoreRepo) List(ctx context.Context, ownerID string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.favorites.fs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	iter := r.client.Collection(favoritesCollection).
		Where("userId", "==", ownerID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	exerciseIDs := make([]string, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate favorites: %w", err)
		}
		var doc favoriteDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite %s: %w", docSnap.Ref.ID, err)
		}
		exerciseIDs = append(exerciseIDs, doc.ExerciseID)
	}

	span.SetAttributes(attribute.Int("favorites.count", len(exerciseIDs)))
	return exerciseIDs, nil
}

func (r *FirestoreRepo) Toggle(ctx context.Context, ownerID, exerciseID string) (isFavorite bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.favorites.fs.toggle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docRef := r.client.Collection(favoritesCollection).Doc(docID(ownerID, exerciseID))

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				isFavorite = true
				return tx.Set(docRef, favoriteDoc{
					UserID:     ownerID,
					ExerciseID: exerciseID,
					CreatedAt:  time.Now(),
				})
			}
			return err
		}
		isFavorite = false
		return tx.Delete(docRef)
	})
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}

	return isFavorite, nil
}
