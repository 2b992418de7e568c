package models

import "time"

// UserProfile represents a user document in the users collection
type UserProfile struct {
	UserID         string    `json:"userId" firestore:"-"`
	Email          string    `json:"email,omitempty" firestore:"email,omitempty"`
	Username       string    `json:"username,omitempty" firestore:"username,omitempty"`
	Age            *int      `json:"age,omitempty" firestore:"age,omitempty"`
	School         *string   `json:"school,omitempty" firestore:"school,omitempty"`
	GoToGym        *bool     `json:"goToGym,omitempty" firestore:"goToGym,omitempty"`
	GymName        *string   `json:"gymName,omitempty" firestore:"gymName,omitempty"`
	Bio            *string   `json:"bio,omitempty" firestore:"bio,omitempty"`
	ProfilePicture *string   `json:"profilePicture,omitempty" firestore:"profilePicture,omitempty"`
	PushToken      *string   `json:"-" firestore:"pushToken,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// Gym returns the declared gym name or an empty string
func (p *UserProfile) Gym() string {
	if p == nil || p.GymName == nil {
		return ""
	}
	return *p.GymName
}

// ProfileUpdate carries the fields of a profile save. Nil fields are left untouched.
type ProfileUpdate struct {
	UserID   string
	Email    *string
	Username *string
	Age      *int
	School   *string
	GoToGym  *bool
	GymName  *string
	Bio      *string
}

// FriendEdge is one direction of a friendship, stored under the owner
type FriendEdge struct {
	OwnerID  string    `json:"ownerId" firestore:"-"`
	FriendID string    `json:"friendId" firestore:"-"`
	Name     string    `json:"name" firestore:"name"`
	AddedAt  time.Time `json:"addedAt" firestore:"addedAt"`
}

// Exercise is a single entry of a workout
type Exercise struct {
	Name     string   `json:"name" firestore:"name" validate:"required"`
	Sets     *int     `json:"sets,omitempty" firestore:"sets,omitempty"`
	Reps     *int     `json:"reps,omitempty" firestore:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty" firestore:"weight,omitempty"`
	Duration *string  `json:"duration,omitempty" firestore:"duration,omitempty"`
}

// Workout represents a logged workout of a user
type Workout struct {
	ID        string     `json:"id" firestore:"-"`
	UserID    string     `json:"-" firestore:"-"`
	Name      string     `json:"name" firestore:"name"`
	Date      string     `json:"date" firestore:"date"`
	Exercises []Exercise `json:"exercises" firestore:"exercises"`
	CreatedAt time.Time  `json:"createdAt" firestore:"createdAt"`
}

// Notification represents a message stored for a user
type Notification struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"-" firestore:"-"`
	Message   string    `json:"message" firestore:"message"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// Recommendation is a suggested workout partner. It is never persisted.
type Recommendation struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Age      *int   `json:"age,omitempty"`
	GymName  string `json:"gymName,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Reason   string `json:"reason,omitempty"`
	UserID   string `json:"userId,omitempty"`
}
