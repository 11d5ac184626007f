// Package appointment stores appointments booked by clinicians.
//
// Appointments are created only. The booking clinician is always the
// authenticated caller; callers never choose DoctorID from input.
package appointment
