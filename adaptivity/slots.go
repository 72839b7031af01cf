package adaptivity

// Names of the coefficient slots the estimator binds per call
const (
	SlotPrimal           = "u"
	SlotExtrapolatedDual = "Ez_h"
	SlotCellResidual     = "R_T"
	SlotFacetResidual    = "R_dT"
	SlotCone             = "b_e"
	SlotInterpolatedDual = "Pi_E_z_h"
)
