package simulation

var givenNames = []string{
	"Ana", "Luis", "María", "José", "Sofía", "Carlos", "Lucía", "Jorge", "Valeria", "Miguel",
	"Fernanda", "Ricardo", "Daniela", "Alejandro", "Gabriela", "Juan", "Paola", "Eduardo",
	"Mariana", "Roberto", "Andrea", "Francisco", "Ximena", "Héctor",
}

var surnames = []string{
	"García", "Hernández", "López", "Martínez", "González", "Pérez", "Rodríguez", "Sánchez",
	"Ramírez", "Cruz", "Flores", "Gómez", "Morales", "Vázquez", "Reyes", "Jiménez", "Torres",
	"Díaz", "Gutiérrez", "Ruiz", "Mendoza", "Aguilar", "Ortiz", "Castillo",
}

var medicalBackgrounds = []string{
	"Sin antecedentes relevantes", "Hipertensión controlada", "Diabetes tipo 2",
	"Asma leve", "Hipotiroidismo", "Embarazo en curso", "Cardiopatía en seguimiento",
}

var allergies = []string{
	"Ninguna conocida", "Ninguna conocida", "Ninguna conocida",
	"Penicilina", "Látex", "Ibuprofeno", "Lidocaína",
}

var adminNotes = []string{
	"", "", "", "Prefiere citas por la tarde", "Requiere factura", "Contactar por WhatsApp",
}

var clinicalNotes = []string{
	"Sin complicaciones", "Paciente refiere sensibilidad", "Se indica control en 6 meses",
	"Sangrado leve controlado", "Se recomienda mejorar técnica de cepillado",
	"Se toma radiografía periapical", "Tolera bien el procedimiento",
}

var observations = []string{
	"", "", "Llegó 10 minutos tarde", "Confirmó por teléfono", "Pendiente enviar presupuesto",
}

// DefaultDoctors staff the simulated clinic.
var DefaultDoctors = []string{
	"Dra. Sofía Martínez", "Dr. Carlos Ramírez", "Dra. Elena Torres",
}
