package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Spanish UI strings, keyed by their English text.
var es = map[string]string{
	"Dashboard":                        "Panel",
	"Notifications":                    "Notificaciones",
	"Network":                          "Red",
	"Profile":                          "Perfil",
	"Loads":                            "Cargas",
	"Sign in":                          "Iniciar sesión",
	"email":                            "correo",
	"password":                         "contraseña",
	"signing in...":                    "iniciando sesión...",
	"loading...":                       "cargando...",
	"error: %s":                        "error: %s",
	"no notifications":                 "sin notificaciones",
	"%d unread":                        "%d sin leer",
	"claiming commissions...":          "reclamando comisiones...",
	"claim finished":                   "reclamo finalizado",
	"claim still running, check later": "el reclamo sigue en curso, revisa más tarde",
	"claim polling stopped":            "consulta de reclamo detenida",
	"marked as read":                   "marcada como leída",
	"all marked as read":               "todas marcadas como leídas",
	"search the network...":            "buscar en la red...",
	"no matches":                       "sin resultados",
	"copied referral code":             "código de referido copiado",
	"language: %s":                     "idioma: %s",
	"session expires in %s":            "la sesión expira en %s",
	"session expired, sign in again":   "la sesión expiró, inicia sesión de nuevo",
	"feature unavailable":              "función no disponible",
	"not permitted":                    "no permitido",
	"admins only":                      "solo administradores",
	"a referral code is required":      "se requiere un código de referido",
	"total":                            "total",
	"pending":                          "pendiente",
	"claimable":                        "reclamables",
	"network size":                     "tamaño de red",
	"directs":                          "directos",
	"user email":                       "correo del usuario",
	"amount":                           "monto",
	"concept":                          "concepto",
	"commission loaded":                "comisión cargada",
	"invalid amount":                   "monto inválido",
	"signed out":                       "sesión cerrada",
	"name":                             "nombre",
	"phone":                            "teléfono",
	"referral code":                    "código de referido",
	"language":                         "idioma",
}

func init() {
	for key, msg := range es {
		if err := message.SetString(language.Spanish, key, msg); err != nil {
			panic("i18n: register " + key + ": " + err.Error())
		}
	}
}
