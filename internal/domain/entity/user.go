package entity

// Roles válidos en el sistema. La administración de usuarios es externa; el
// motor solo interpreta el rol que viaja en el token.
const (
	RoleAdmin       = "admin"
	RoleCoordinador = "coordinador"
	RoleVendedor    = "vendedor"
	RoleBodeguero   = "bodeguero"
	RoleTecnico     = "tecnico"
)

// IsSalesRole indica si el rol pertenece al nivel comercial (dispara la doble aprobación).
func IsSalesRole(role string) bool {
	return role == RoleVendedor
}

// IsServiceRole indica si el rol pertenece al nivel de servicio (aprueba y asigna).
func IsServiceRole(role string) bool {
	return role == RoleAdmin || role == RoleCoordinador
}

// CanAssign indica si el rol tiene privilegio de asignación/reasignación.
func CanAssign(role string) bool {
	return IsServiceRole(role)
}

// CanTransferStock indica si el rol puede mover stock entre bodega y técnicos.
func CanTransferStock(role string) bool {
	return role == RoleAdmin || role == RoleBodeguero
}
