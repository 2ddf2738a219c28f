package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const FeedbackCollection = "feedback"

// FeedbackModel 用户反馈 / 问题报告
type FeedbackModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Type      string             `bson:"type"` // feedback / bug
	Message   string             `bson:"message"`
	UserID    *uint64            `bson:"user_id,omitempty"` // 匿名提交为空
	Email     string             `bson:"email,omitempty"`
	Name      string             `bson:"name,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}
