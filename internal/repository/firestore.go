package repository

import (
	"context"
	"errors"
	"fmt"

	"fitpair-backend/internal/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection         = "users"
	friendsCollection       = "friends"
	workoutsCollection      = "workouts"
	notificationsCollection = "notifications"
)

// NewFirestoreStore opens a Firestore client and returns the Firestore-backed
// repositories. An empty credentialsFile uses application default credentials
// (or FIRESTORE_EMULATOR_HOST when set).
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Store{
		Users:         &firestoreUsers{fs: client},
		Friends:       &firestoreFriends{fs: client},
		Workouts:      &firestoreWorkouts{fs: client},
		Notifications: &firestoreNotifications{fs: client},
		close:         client.Close,
	}, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

type firestoreUsers struct {
	fs *firestore.Client
}

func decodeUser(doc *firestore.DocumentSnapshot) (*models.UserProfile, error) {
	var u models.UserProfile
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", doc.Ref.ID, err)
	}
	u.UserID = doc.Ref.ID
	return &u, nil
}

func (r *firestoreUsers) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	doc, err := r.fs.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return decodeUser(doc)
}

func (r *firestoreUsers) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	iter := r.fs.Collection(usersCollection).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return decodeUser(doc)
}

func (r *firestoreUsers) List(ctx context.Context) ([]*models.UserProfile, error) {
	iter := r.fs.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	users := []*models.UserProfile{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// upsertFields maps the set fields of u to document fields. createdAt is only
// written for new documents.
func upsertFields(u *models.ProfileUpdate, create bool) map[string]interface{} {
	data := map[string]interface{}{"updatedAt": firestore.ServerTimestamp}
	if create {
		data["createdAt"] = firestore.ServerTimestamp
	}
	if u.Email != nil {
		data["email"] = *u.Email
	}
	if u.Username != nil {
		data["username"] = *u.Username
	}
	if u.Age != nil {
		data["age"] = *u.Age
	}
	if u.School != nil {
		data["school"] = *u.School
	}
	if u.GoToGym != nil {
		data["goToGym"] = *u.GoToGym
	}
	if u.GymName != nil {
		data["gymName"] = *u.GymName
	}
	if u.Bio != nil {
		data["bio"] = *u.Bio
	}
	return data
}

func (r *firestoreUsers) Upsert(ctx context.Context, u *models.ProfileUpdate) error {
	ref := r.fs.Collection(usersCollection).Doc(u.UserID)
	// The function reruns on contention, so each attempt builds its own fields.
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		return tx.Set(ref, upsertFields(u, err != nil), firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *firestoreUsers) update(ctx context.Context, userID string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	_, err := r.fs.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *firestoreUsers) UpdateProfilePicture(ctx context.Context, userID, url string) error {
	return r.update(ctx, userID, []firestore.Update{{Path: "profilePicture", Value: url}})
}

func (r *firestoreUsers) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	var value interface{} = firestore.Delete
	if pushToken != nil {
		value = *pushToken
	}
	return r.update(ctx, userID, []firestore.Update{{Path: "pushToken", Value: value}})
}

type firestoreFriends struct {
	fs *firestore.Client
}

func (r *firestoreFriends) friends(userID string) *firestore.CollectionRef {
	return r.fs.Collection(usersCollection).Doc(userID).Collection(friendsCollection)
}

func (r *firestoreFriends) ListByUser(ctx context.Context, userID string) ([]*models.FriendEdge, error) {
	iter := r.friends(userID).Documents(ctx)
	defer iter.Stop()

	edges := []*models.FriendEdge{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get friends: %w", err)
		}
		var e models.FriendEdge
		if err := doc.DataTo(&e); err != nil {
			return nil, fmt.Errorf("failed to decode friend %s: %w", doc.Ref.ID, err)
		}
		e.OwnerID = userID
		e.FriendID = doc.Ref.ID
		edges = append(edges, &e)
	}
	return edges, nil
}

func (r *firestoreFriends) Exists(ctx context.Context, ownerID, friendID string) (bool, error) {
	_, err := r.friends(ownerID).Doc(friendID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check friend existence: %w", err)
	}
	return true, nil
}

func (r *firestoreFriends) CreatePair(ctx context.Context, a, b *models.FriendEdge) error {
	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, e := range []*models.FriendEdge{a, b} {
			data := map[string]interface{}{
				"name":    e.Name,
				"addedAt": firestore.ServerTimestamp,
			}
			if err := tx.Create(r.friends(e.OwnerID).Doc(e.FriendID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("friend edge %s -> %s: %w", a.OwnerID, a.FriendID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create friend pair: %w", err)
	}
	return nil
}

type firestoreWorkouts struct {
	fs *firestore.Client
}

func (r *firestoreWorkouts) workouts(userID string) *firestore.CollectionRef {
	return r.fs.Collection(usersCollection).Doc(userID).Collection(workoutsCollection)
}

func (r *firestoreWorkouts) Create(ctx context.Context, w *models.Workout) error {
	if _, err := r.workouts(w.UserID).Doc(w.ID).Set(ctx, w); err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

func (r *firestoreWorkouts) ListByUser(ctx context.Context, userID string) ([]*models.Workout, error) {
	iter := r.workouts(userID).Documents(ctx)
	defer iter.Stop()

	workouts := []*models.Workout{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get workouts: %w", err)
		}
		var w models.Workout
		if err := doc.DataTo(&w); err != nil {
			return nil, fmt.Errorf("failed to decode workout %s: %w", doc.Ref.ID, err)
		}
		w.ID = doc.Ref.ID
		w.UserID = userID
		workouts = append(workouts, &w)
	}
	return workouts, nil
}

type firestoreNotifications struct {
	fs *firestore.Client
}

func (r *firestoreNotifications) notifications(userID string) *firestore.CollectionRef {
	return r.fs.Collection(usersCollection).Doc(userID).Collection(notificationsCollection)
}

func (r *firestoreNotifications) Create(ctx context.Context, n *models.Notification) error {
	if _, err := r.notifications(n.UserID).Doc(n.ID).Set(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *firestoreNotifications) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	iter := r.notifications(userID).OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	notifications := []*models.Notification{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get notifications: %w", err)
		}
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, fmt.Errorf("failed to decode notification %s: %w", doc.Ref.ID, err)
		}
		n.ID = doc.Ref.ID
		n.UserID = userID
		notifications = append(notifications, &n)
	}
	return notifications, nil
}
