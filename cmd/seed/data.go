package main

import "carelink/pkg/model"

func weekly(days []string, times ...string) []model.Availability {
	var slots []model.Slot
	for _, start := range times {
		slots = append(slots, model.Slot{StartTime: start, EndTime: hourAfter(start)})
	}

	availability := make([]model.Availability, 0, len(days))
	for _, day := range days {
		availability = append(availability, model.Availability{Day: day, Slots: append([]model.Slot(nil), slots...)})
	}
	return availability
}

// hourAfter expects a whole-hour HH:MM before 23:00.
func hourAfter(start string) string {
	h := int(start[0]-'0')*10 + int(start[1]-'0') + 1
	return string([]byte{byte('0' + h/10), byte('0' + h%10)}) + start[2:]
}

var providers = []*model.Provider{
	{
		Name:         "Dr. Sarah Johnson",
		Email:        "sarah.johnson@carelink.example",
		Location:     "Nairobi, Kenya",
		Bio:          "Clinical psychologist working with anxiety, depression and trauma using CBT and mindfulness.",
		Specialties:  []string{"Anxiety", "Depression", "Trauma"},
		Modes:        []string{model.ModeVideo, model.ModeInPerson, model.ModePhone},
		TherapyTypes: []string{"CBT", "Mindfulness"},
		SessionRate:  5000,
		IsApproved:   true,
		IsActive:     true,
		Availability: weekly([]string{model.Monday, model.Wednesday, model.Friday}, "09:00", "10:00", "14:00"),
	},
	{
		Name:         "Dr. Michael Ochieng",
		Email:        "michael.ochieng@carelink.example",
		Location:     "Mombasa, Kenya",
		Bio:          "Counselor focused on stress, careers and relationships.",
		Specialties:  []string{"Stress", "Career", "Relationships"},
		Modes:        []string{model.ModeVideo, model.ModePhone, model.ModeChat},
		TherapyTypes: []string{"Counseling"},
		SessionRate:  4000,
		IsApproved:   true,
		IsActive:     true,
		Availability: weekly([]string{model.Tuesday, model.Thursday}, "10:00", "11:00", "15:00", "16:00"),
	},
	{
		Name:         "Grace Wanjiku",
		Email:        "grace.wanjiku@carelink.example",
		Location:     "Kisumu, Kenya",
		Bio:          "Family therapist supporting parents, couples and adolescents.",
		Specialties:  []string{"Family", "Adolescents"},
		Modes:        []string{model.ModeInPerson, model.ModeVideo},
		TherapyTypes: []string{"Family Therapy"},
		SessionRate:  3500,
		IsApproved:   true,
		IsActive:     true,
		Availability: weekly([]string{model.Monday, model.Saturday}, "08:00", "12:00"),
	},
}

var rooms = []*model.Room{
	{Name: "Study Stress Support", Description: "Share your academic pressures and find solidarity", Category: "Academic", Mood: "supportive", IsActive: true},
	{Name: "Anxiety Circle", Description: "A calm space to talk through worry and panic", Category: "Wellbeing", Mood: "calm", IsActive: true},
	{Name: "Night Owls", Description: "For the late hours when sleep will not come", Category: "Sleep", Mood: "gentle", IsActive: true},
	{Name: "Work and Burnout", Description: "Talk about workload, careers and finding balance", Category: "Work", Mood: "supportive", IsActive: true},
}
