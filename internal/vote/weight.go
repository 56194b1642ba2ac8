package vote

import (
	"github.com/abrezinsky/cuevote/internal/errors"
	"github.com/abrezinsky/cuevote/internal/models"
)

// roleWeights is the fixed role → vote weight table
var roleWeights = map[models.Role]models.Weight{
	models.RoleAttendee: models.WeightUnit / 2,
	models.RolePlayer:   models.WeightUnit,
	models.RoleOperator: 2 * models.WeightUnit,
}

// WeightOf returns the vote weight of a role, or an InvalidRole error
func WeightOf(role models.Role) (models.Weight, error) {
	w, ok := roleWeights[role]
	if !ok {
		return 0, errors.InvalidRole(string(role))
	}
	return w, nil
}
