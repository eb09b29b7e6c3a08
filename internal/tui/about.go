package tui

// aboutMarkdown is the in-app manual shown on the about screen.
const aboutMarkdown = `# Oncolly

A terminal client for day-to-day health tracking during oncology care.

## Patients

Pick an activity from the home list and fill in the form. Each activity
has its own fields: a stopwatch for timed activities like walking and
exercise, yes/no answers, and plain number or text entries. Only the
fields you touch are saved.

- **H** opens your history, where **d** deletes an entry
- **P** opens your profile for editing
- **ctrl+s** saves a form, **esc** discards it

## Doctors

The home screen lists your patients. Press **enter** on a patient to see
their recorded activities, and **g** for your appointment agenda, where
**n** schedules a new appointment.

## Session

A login stays valid for 24 hours. Quitting the app keeps the session;
**ctrl+l** signs out explicitly.
`
