package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/response"
)

func (s *HttpSrv) Mode(c *gin.Context) {
	response.APISuccess(c, s.Core.Plugins.Name())
}

func (s *HttpSrv) AIStatus(c *gin.Context) {
	response.APISuccess(c, s.Core.Srv().AIStatus())
}

type IssueTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken issues a fresh token for the user of the current token.
func (s *HttpSrv) RefreshToken(c *gin.Context) {
	claims, _ := v1.InjectTokenClaim(c)
	token, err := v1.NewAuthLogic(s.Core).IssueToken(claims.User)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, IssueTokenResponse{Token: token})
}
