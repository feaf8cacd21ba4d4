package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sex selects the BMR coefficients.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Goal is collected during onboarding. The calculator accepts it but the
// deficit applied is the same for every goal.
type Goal string

const (
	GoalMuscleGain Goal = "muscle_gain"
	GoalFatLoss    Goal = "fat_loss"
)

// Preferences are free-form dietary notes. They travel with the profile but
// are not read by the planning engine.
type Preferences struct {
	PrefCarbs    bool     `bson:"prefCarbs" json:"prefCarbs"`
	PrefFats     bool     `bson:"prefFats" json:"prefFats"`
	Restrictions string   `bson:"restrictions,omitempty" json:"restrictions,omitempty"`
	Notes        string   `bson:"notes,omitempty" json:"notes,omitempty"`
	BlockedFoods []string `bson:"blockedFoods,omitempty" json:"blockedFoods,omitempty"`

	RestrictionsDetail RestrictionsDetail `bson:"restrictionsDetail" json:"restrictionsDetail"`
}

// Profile holds the physiological inputs of the plan calculator.
type Profile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`

	Age    float64 `bson:"age" json:"age"`       // years
	Weight float64 `bson:"weight" json:"weight"` // kg
	Height float64 `bson:"height" json:"height"` // cm
	Sex    Sex     `bson:"sex" json:"sex"`

	// ActivityLevel is either a "<tier>_<days>" key such as "sedentary_3" or a
	// legacy single key such as "moderate".
	ActivityLevel string `bson:"activityLevel" json:"activityLevel"`
	TrainingDays  int    `bson:"trainingDays" json:"trainingDays"`
	Goal          Goal   `bson:"goal" json:"goal"`

	Preferences Preferences `bson:"preferences" json:"preferences"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
