package conversation

// Фразы ассистента
const (
	msgGreeting      = "Hello, I am Aarogya Mitra. How can I help you today? You can say book appointment, apply for leave, or exit."
	msgUnknown       = "Sorry, I didn't understand that. You can say book appointment, apply for leave, or exit."
	msgCommandSilent = "I didn't hear anything. Please say your command again."
	msgFarewell      = "Good day"

	msgAskDoctor      = "Please tell me the doctor's name."
	msgRepeatDoctor   = "I didn't catch that. Please tell me the doctor's name again."
	msgDoctorNotFound = "I couldn't find a doctor named %s."
	msgManyDoctors    = "I found multiple doctors named %s. I will book with %s."

	msgAskPurpose    = "What is the purpose of your appointment?"
	msgRepeatPurpose = "Sorry, please repeat the purpose of your appointment."

	msgAskDate     = "On which date would you like to book the appointment? You can say 14 April or 14.04.2025."
	msgRepeatDate  = "Sorry, please repeat the date."
	msgBadDate     = "Sorry, I couldn't understand the date. Please say it again."
	msgPastDate    = "That date has already passed. Please choose today or a later date."
	msgAskTime     = "At what time would you like to schedule the appointment?"
	msgRepeatTime  = "Sorry, I didn't get that. Please tell the time again."
	msgBadTime     = "Sorry, I couldn't understand the time. Please say it again."
	msgLunchBreak  = "Sorry, 1 PM to 2 PM is lunch break. Please choose another time."
	msgOutsideHour = "Appointments are only available between 10 AM and 6 PM. Please choose a valid time."

	msgBookingNoStudent = "Could not identify a student account to book this appointment."
	msgSlotTaken        = "Sorry, that slot is already booked."
	msgBookingFailed    = "An error occurred while booking the appointment."
	msgBooked           = "Your appointment request is submitted successfully for %s on %s at %s for %s."
	msgCalendarAdded    = "I have also added this to your Google Calendar."
	msgCalendarFailed   = "I couldn't add this to your Google Calendar, but your appointment is saved."

	msgAskLeaveDate    = "Please tell me the date of leave."
	msgRepeatLeaveDate = "Sorry, please repeat the date of leave."
	msgAskReason       = "Please tell me the reason for leave."
	msgRepeatReason    = "Sorry, please repeat the reason for leave."
	msgLeaveNoStudent  = "Could not identify a student account."
	msgLeaveFailed     = "An error occurred while applying for leave."
	msgLeaveRecorded   = "Your leave for %s is recorded successfully for the reason: %s."

	msgDatabaseDown = "Database connection failed."
	msgTimedOut     = "I didn't get a valid answer in time, so I have stopped this request."
	msgAborted      = "Request cancelled."
)

// Форматы дат в подтверждениях
const (
	spokenDate = "02 January"
	spokenTime = "03:04 PM"
)
