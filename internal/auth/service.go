package auth

import "pos-dispatch/internal/jwt"

type Service interface {
	GenerateToken(sub, role string) (string, error)
}

type authService struct {
	jwt *jwt.Service
}

func NewAuthService(jwt *jwt.Service) Service {
	return &authService{jwt: jwt}
}

func (s *authService) GenerateToken(sub, role string) (string, error) {
	return s.jwt.GenerateToken(sub, role)
}
