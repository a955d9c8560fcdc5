package users

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/ironlog/internal/telemetry/tracing"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type userDoc struct {
	Email     string    `firestore:"email"`
	Username  string    `firestore:"username"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type FirestoreRepo struct {
	client *firestore.Client
}

func NewFirestoreRepo(client *firestore.Client) *FirestoreRepo {
	return &FirestoreRepo{
		client: client,
	}
}

func (r *FirestoreRepo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.fs.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	// doc id is the uid, re-registering overwrites the profile mirror
	_, err = r.client.Collection(usersCollection).Doc(user.UID).Set(ctx, userDoc{
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("set user doc: %w", err)
	}

	return &user, nil
}

func (r *FirestoreRepo) Get(ctx context.Context, uid string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.fs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docSnap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user doc: %w", err)
	}

	var doc userDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}

	return &User{
		UID:       uid,
		Email:     doc.Email,
		Username:  doc.Username,
		CreatedAt: doc.CreatedAt,
	}, nil
}
