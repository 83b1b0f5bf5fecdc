package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/inftyart/inftyart/internal/config"
)

type User struct {
	ID             uuid.UUID
	Address        string
	FirstName      string
	LastName       string
	Description    string
	ProfilePicture string
	NftRefs        []Ref
	AlbumRefs      []Ref
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u Usecase) GetUserByAddress(ctx context.Context, address string) (User, error) {
	user, err := u.repo.GetUserByAddress(ctx, address)
	if err != nil {
		return User{}, ErrNotFound{ID: address, Code: "USER_NOT_FOUND", Message: "user not found"}
	}
	return user, nil
}

type UpdateProfileOption struct {
	Address        string
	FirstName      string
	LastName       string
	Description    string
	ProfilePicture string
}

// UpdateProfile creates the profile on first contact, with a default
// avatar when none is given.
func (u Usecase) UpdateProfile(ctx context.Context, opt UpdateProfileOption) (User, error) {
	user, err := u.repo.GetUserByAddress(ctx, opt.Address)
	if err != nil {
		picture := opt.ProfilePicture
		if picture == "" {
			picture = os.Getenv(config.ENV_KEY_DEFAULT_PROFILE_IMAGE)
		}
		return u.repo.CreateUser(ctx, User{
			Address:        opt.Address,
			FirstName:      opt.FirstName,
			LastName:       opt.LastName,
			Description:    opt.Description,
			ProfilePicture: picture,
		})
	}

	user.FirstName = opt.FirstName
	user.LastName = opt.LastName
	user.Description = opt.Description
	if opt.ProfilePicture != "" {
		user.ProfilePicture = opt.ProfilePicture
	}

	return u.repo.UpdateUser(ctx, user)
}

// SetAvatar points the user's profile picture at an owned NFT's artwork.
func (u Usecase) SetAvatar(ctx context.Context, address, nftID string) (string, error) {
	nft, err := u.GetNftByID(ctx, nftID)
	if err != nil {
		return "", err
	}
	user, err := u.GetUserByAddress(ctx, address)
	if err != nil {
		return "", err
	}

	user.ProfilePicture = nft.FileURL
	if _, err := u.repo.UpdateUser(ctx, user); err != nil {
		return "", err
	}
	return nft.FileURL, nil
}

type SupportRequest struct {
	Address string
	Email   string
	Subject string
	Message string
}

func (u Usecase) SubmitSupportRequest(ctx context.Context, req SupportRequest) error {
	to := os.Getenv(config.ENV_KEY_SUPPORT_EMAIL)
	if to == "" {
		return fmt.Errorf("support email not configured")
	}

	body := fmt.Sprintf("<p>From: %s (%s)</p><p>%s</p>", req.Address, req.Email, req.Message)

	return u.mailProvider.SendEmail(ctx, Email{
		From:    to,
		To:      []string{to},
		Subject: fmt.Sprintf("[support] %s", req.Subject),
		Body:    body,
	})
}
