package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"anoa.com/storefront/pkg/apperror"
	"anoa.com/storefront/pkg/dto"
	"github.com/google/uuid"
)

var errMissingID = errors.New("id is required")

func requireID(id uuid.UUID) error {
	if id == uuid.Nil {
		return apperror.ValidationFailure(errMissingID)
	}
	return nil
}

// Login exchanges credentials for a bearer token. It is the only call that
// does not need a TokenSource.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	body := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchRewardAccount(ctx context.Context) (*dto.RewardAccount, error) {
	return shared[dto.RewardAccount](c, ctx, accountPath)
}

func (c *Client) FetchRewardCatalog(ctx context.Context) ([]dto.Reward, error) {
	var out []dto.Reward
	if err := c.do(ctx, http.MethodGet, "/api/rewards", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchRewards(ctx context.Context, query string) ([]dto.Reward, error) {
	var out []dto.Reward
	path := "/api/rewards/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RedeemReward issues one redemption. The server re-checks the balance.
// Cart and redemption calls invalidate the matching coalesced read, whatever
// their outcome, since a failed call may still have reached the server.
func (c *Client) RedeemReward(ctx context.Context, rewardID uuid.UUID) (*dto.RedeemResponse, error) {
	if err := requireID(rewardID); err != nil {
		return nil, err
	}
	var out dto.RedeemResponse
	err := c.do(ctx, http.MethodPost, "/api/rewards/"+rewardID.String()+"/redeem", nil, true, &out)
	c.invalidate(accountPath)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchCart(ctx context.Context) (*dto.Cart, error) {
	return shared[dto.Cart](c, ctx, cartPath)
}

func (c *Client) AddCartItem(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartItem, error) {
	if err := requireID(productID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperror.ValidationFailure(apperror.ErrInvalidQuantity)
	}
	var out dto.CartItem
	body := dto.AddCartItemRequest{ProductID: productID, Quantity: quantity}
	err := c.do(ctx, http.MethodPost, cartPath+"/items", body, true, &out)
	c.invalidate(cartPath)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItemQuantity sets an absolute quantity. Quantities below one are
// rejected locally; callers remove the line instead.
func (c *Client) UpdateCartItemQuantity(ctx context.Context, productID uuid.UUID, quantity int) (*dto.CartItem, error) {
	if err := requireID(productID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperror.ValidationFailure(apperror.ErrInvalidQuantity)
	}
	var out dto.CartItem
	body := dto.UpdateCartItemRequest{Quantity: quantity}
	err := c.do(ctx, http.MethodPut, cartPath+"/items/"+productID.String(), body, true, &out)
	c.invalidate(cartPath)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, productID uuid.UUID) error {
	if err := requireID(productID); err != nil {
		return err
	}
	err := c.do(ctx, http.MethodDelete, cartPath+"/items/"+productID.String(), nil, true, nil)
	c.invalidate(cartPath)
	return err
}

func (c *Client) FetchRelationship(ctx context.Context, userID uuid.UUID) (*dto.Relationship, error) {
	if err := requireID(userID); err != nil {
		return nil, err
	}
	var out dto.Relationship
	if err := c.do(ctx, http.MethodGet, "/api/follows/"+userID.String(), nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendFollowRequest(ctx context.Context, userID uuid.UUID) error {
	if err := requireID(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/follows/"+userID.String(), nil, true, nil)
}

func (c *Client) CancelFollowRequest(ctx context.Context, userID uuid.UUID) error {
	if err := requireID(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/api/follows/"+userID.String()+"/request", nil, true, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID uuid.UUID) error {
	if err := requireID(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/api/follows/"+userID.String(), nil, true, nil)
}
