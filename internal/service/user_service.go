package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"
)

type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// PaymentMethods lists the stored payment methods of a user
func (us *UserService) PaymentMethods(ctx context.Context, userID int64) ([]models.PaymentMethod, error) {
	ctx, span := util.StartSpan(ctx, "UserService.PaymentMethods")
	defer span.End()

	user, err := us.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NotFoundError(fmt.Sprintf("User %d not found", userID))
	}

	return us.users.GetPaymentMethodsByUser(ctx, userID)
}
