package telegram

const (
	commonErrorInternal = "Se produjo un error interno, inténtalo de nuevo más tarde."
	messageNotLinked    = "Tu chat no está vinculado a ninguna cuenta. Vincúlalo desde la aplicación con el ID de chat %d."
	messageUnknown      = "No reconozco ese comando. Usa /help para ver la lista de comandos."

	newsHeadlines = 5
)

const messageStart = `👋 *¡Bienvenido al Dashboard Financiero!*
Te ayudo a seguir tus inversiones sin salir de Telegram.

📊 /portfolio - Resumen de tu portafolio
🔔 /alerts - Tus alertas de precio
📰 /news - Últimas noticias del mercado

🆘 /help - Guía de uso`

const messageHelp = `❓ *Guía de uso*

/start - Mensaje de bienvenida
/portfolio [nombre] - Valor, ganancia y rendimiento del portafolio indicado (o del primero)
/alerts - Alertas pendientes y activadas
/news - Los 5 titulares más recientes con su sentimiento

Para usar /portfolio y /alerts primero vincula este chat con tu cuenta desde la aplicación.`
