package entity

// LeadStage is a column of the sales pipeline board.
type LeadStage string

const (
	StageNuevoLead        LeadStage = "Nuevo Lead"
	StageContactado       LeadStage = "Contactado"
	StageReunionAgendada  LeadStage = "Reunión Agendada"
	StageReunionRealizada LeadStage = "Reunión Realizada"
	StagePropuestaEnviada LeadStage = "Propuesta Enviada"
	StageNegociacion      LeadStage = "Negociación"
	StageContratoEnviado  LeadStage = "Contrato Enviado"
	StageContratoFirmado  LeadStage = "Contrato Firmado"
	StagePagoInicial      LeadStage = "Pago Inicial"
	StageCapacitacion     LeadStage = "Capacitación"
	StageImplementacion   LeadStage = "Implementación"
	StageLeadCerrado      LeadStage = "Lead Cerrado"
)

// LeadStages lists every lead stage in board order.
var LeadStages = []LeadStage{
	StageNuevoLead,
	StageContactado,
	StageReunionAgendada,
	StageReunionRealizada,
	StagePropuestaEnviada,
	StageNegociacion,
	StageContratoEnviado,
	StageContratoFirmado,
	StagePagoInicial,
	StageCapacitacion,
	StageImplementacion,
	StageLeadCerrado,
}

func (s LeadStage) Valid() bool {
	return s.Index() >= 0
}

// Index returns the board position of s, or -1.
func (s LeadStage) Index() int {
	for i, stage := range LeadStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// ServiceStage is the billing state of an active client.
type ServiceStage string

const (
	ServiceEnServicio      ServiceStage = "En servicio"
	ServicePausado         ServiceStage = "Pausado"
	ServicePendienteDePago ServiceStage = "Pendiente de pago"
)

// ServiceStages lists every service stage in board order.
var ServiceStages = []ServiceStage{
	ServiceEnServicio,
	ServicePausado,
	ServicePendienteDePago,
}

func (s ServiceStage) Valid() bool {
	return s.Index() >= 0
}

func (s ServiceStage) Index() int {
	for i, stage := range ServiceStages {
		if stage == s {
			return i
		}
	}
	return -1
}
