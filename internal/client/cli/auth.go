package cli

import (
	"context"
	"fmt"
)

func (a *App) Register(ctx context.Context) error {
	fullName, err := GetSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	role, err := GetSimpleText(a.reader, "Enter role (empty for User)", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	token, err := a.client.Register(ctx, fullName, email, string(password), role)
	if err != nil {
		return err
	}
	if err := saveToken(a.config.TokenFile, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	fmt.Fprintln(a.out, "Registered, token saved to", a.config.TokenFile)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	token, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	if err := saveToken(a.config.TokenFile, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	fmt.Fprintln(a.out, "Logged in, token saved to", a.config.TokenFile)
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	token, err := loadToken(a.config.TokenFile)
	if err != nil {
		return err
	}
	a.client.SetAccessToken(token)

	p, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "User ID:    %s\n", p.UserID)
	fmt.Fprintf(a.out, "Email:      %s\n", p.Email)
	fmt.Fprintf(a.out, "Name:       %s\n", p.Name)
	fmt.Fprintf(a.out, "Role:       %s\n", p.Role)
	fmt.Fprintf(a.out, "Active:     %t\n", p.IsActive)
	if p.LastLogin != "" {
		fmt.Fprintf(a.out, "Last login: %s\n", p.LastLogin)
	}
	return nil
}

func (a *App) Logout() error {
	if err := removeToken(a.config.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
